// Хранение документов с форматированным текстом: создание, изменение с сохранением ревизий,
// проверка нового содержимого Lua-правилами документа и просмотр журнала правил.
package richtext

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/apierrors"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	policy "github.com/WordPress/gutenberg-sub061/internal/richtext/redactor-policy"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/rules"
	stack_error "github.com/WordPress/gutenberg-sub061/internal/richtext/stack-error"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/utils"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 20
	previewLength    = 200
)

type DocumentContext struct {
	echo.Context
	Document dao.Document
}

func (s *Services) DocumentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		docId, err := uuid.FromString(c.Param("docId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrDocumentIdInvalid)
		}

		doc, err := dao.GetDocument(s.db, docId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EErrorDefined(c, apierrors.ErrDocumentNotFound)
			}
			return EError(c, stack_error.TrackErrorStack(err).AddContext("document_id", docId))
		}

		return next(DocumentContext{c, *doc})
	}
}

func (s *Services) AddDocumentServices(g *echo.Group) {
	docGroup := g.Group("documents/:docId", s.DocumentMiddleware)

	g.GET("documents/", s.getDocumentList)
	g.POST("documents/", s.createDocument)

	docGroup.GET("/", s.getDocument)
	docGroup.PATCH("/", s.updateDocument)
	docGroup.DELETE("/", s.deleteDocument)
	docGroup.GET("/html/", s.getDocumentHTML)

	docGroup.GET("/revisions/", s.getRevisionList)
	docGroup.GET("/revisions/:version/", s.getRevision)

	docGroup.GET("/rules-log/", s.getRulesLogList)
}

func bindPagination(c echo.Context) (int, int, error) {
	var req PaginationRequest
	if err := c.Bind(&req); err != nil {
		return 0, 0, err
	}
	if err := c.Validate(&req); err != nil {
		return 0, 0, apierrors.ErrRequestValidate
	}
	if req.Limit == 0 {
		req.Limit = defaultPageLimit
	}
	return req.Offset, req.Limit, nil
}

// requestContent возвращает новое содержимое документа из value или из html. html приоритетнее.
func (s *Services) requestContent(value *editor.Value, body *string, multilineTag string) (*editor.Value, error) {
	if body != nil {
		v, err := s.valueFromHTML(*body, multilineTag)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return value, nil
}

// runRules выполняет BeforeSave скрипта документа и возвращает записи журнала правил.
// Отказ правила и ошибка скрипта запрещают сохранение.
func (s *Services) runRules(doc dao.Document, v editor.Value) ([]dao.RulesLog, error) {
	if doc.RulesScript == nil {
		return nil, nil
	}

	result, messages, rErr := rules.BeforeSave(doc, v)

	var logs []dao.RulesLog
	rules.ResultToLog(doc, result, rErr, &logs)
	rules.AppendMsg(doc, messages, &logs)
	rules.AppendError(doc, rErr, &logs)

	switch {
	case rErr == nil:
		s.metrics.rulesRuns.WithLabelValues("success").Inc()
		return logs, nil
	case rErr.Rejected():
		s.metrics.rulesRuns.WithLabelValues("rejected").Inc()
	default:
		s.metrics.rulesRuns.WithLabelValues("error").Inc()
	}
	return logs, rErr.ClientError()
}

func (s *Services) saveRulesLog(c echo.Context, logs []dao.RulesLog) {
	if err := rules.AddLog(s.db, logs); err != nil {
		stack_error.GetError(c, stack_error.TrackErrorStack(err).AddContext("logs", len(logs)))
	}
}

// getDocumentList godoc
// @id getDocumentList
// @Summary documents: список документов
// @Tags Documents
// @Produce json
// @Param offset query int false "Смещение" default(0)
// @Param limit query int false "Количество" default(20)
// @Success 200 {object} dao.PaginationResponse{result=[]DocumentLight} "документы"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/documents/ [get]
func (s *Services) getDocumentList(c echo.Context) error {
	offset, limit, err := bindPagination(c)
	if err != nil {
		return EError(c, err)
	}

	resp, err := dao.ListDocuments(s.db, offset, limit)
	if err != nil {
		return EError(c, stack_error.TrackErrorStack(err))
	}
	if docs, ok := resp.Result.(*[]dao.Document); ok {
		resp.Result = utils.SliceToSlice(docs, s.documentLight)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Services) documentLight(doc *dao.Document) DocumentLight {
	res := DocumentLight{
		ID:        doc.ID,
		Title:     doc.Title,
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
	}
	body, err := editor.ToHTML(doc.Content, doc.MultilineTag, s.registry)
	if err != nil {
		slog.Warn("Render document preview", "documentId", doc.ID, "err", err)
		return res
	}
	res.Preview = utils.Substr(policy.PlainText(body), 0, previewLength)
	return res
}

// createDocument godoc
// @id createDocument
// @Summary documents: создание документа
// @Description Создает документ из значения или HTML. Если задан скрипт правил, содержимое предварительно проверяется им
// @Tags Documents
// @Accept json
// @Produce json
// @Param data body DocumentRequest true "Документ"
// @Success 201 {object} dao.Document "созданный документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 413 {object} apierrors.DefinedError "Превышен лимит длины текста"
// @Failure 422 {object} apierrors.DefinedError "Содержимое отклонено правилом"
// @Router /api/documents/ [post]
func (s *Services) createDocument(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return EErrorDefined(c, apierrors.ErrDocumentTitleRequired)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestValidate)
	}

	doc := dao.Document{
		ID:           dao.GenUUID(),
		Title:        req.Title,
		MultilineTag: s.multilineTag(req.MultilineTag),
		Content:      editor.Create(""),
	}
	if req.RulesScript != nil && strings.TrimSpace(*req.RulesScript) != "" {
		doc.RulesScript = req.RulesScript
	}

	content, err := s.requestContent(req.Content, req.HTML, doc.MultilineTag)
	if err != nil {
		return EError(c, err)
	}
	if content != nil {
		if err := s.checkValue(*content, uuid.Nil); err != nil {
			return EError(c, err)
		}
		doc.Content = content.Clone()
	}

	logs, err := s.runRules(doc, doc.Content)
	if err != nil {
		return EError(c, err)
	}

	if err := dao.CreateDocument(s.db, &doc); err != nil {
		return EError(c, stack_error.TrackErrorStack(err).AddContext("title", doc.Title))
	}
	s.saveRulesLog(c, logs)

	return c.JSON(http.StatusCreated, doc)
}

// getDocument godoc
// @id getDocument
// @Summary documents: получение документа
// @Tags Documents
// @Produce json
// @Param docId path string true "ID документа"
// @Success 200 {object} dao.Document "документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректный ID"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/ [get]
func (s *Services) getDocument(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(DocumentContext).Document)
}

// updateDocument godoc
// @id updateDocument
// @Summary documents: изменение документа
// @Description Изменяет документ. Предыдущее содержимое сохраняется ревизией, новое содержимое проверяется скриптом правил документа
// @Tags Documents
// @Accept json
// @Produce json
// @Param docId path string true "ID документа"
// @Param data body UpdateDocumentRequest true "Изменяемые поля"
// @Success 200 {object} dao.Document "документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Failure 409 {object} apierrors.DefinedError "Документ изменен другим запросом"
// @Failure 413 {object} apierrors.DefinedError "Превышен лимит длины текста"
// @Failure 422 {object} apierrors.DefinedError "Содержимое отклонено правилом"
// @Router /api/documents/{docId}/ [patch]
func (s *Services) updateDocument(c echo.Context) error {
	doc := c.(DocumentContext).Document

	var req UpdateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return EErrorDefined(c, apierrors.ErrDocumentTitleRequired)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestValidate)
	}
	if req.Version != nil && *req.Version != doc.Version {
		return EErrorDefined(c, apierrors.ErrDocumentVersionConflict)
	}

	var upd dao.DocumentUpdate
	req.Bind(&upd)

	multilineTag := doc.MultilineTag
	if upd.MultilineTag != nil {
		multilineTag = *upd.MultilineTag
	}

	content, err := s.requestContent(req.Content, req.HTML, multilineTag)
	if err != nil {
		return EError(c, err)
	}
	upd.Content = content

	if upd.Content != nil {
		if err := s.checkValue(*upd.Content, doc.ID); err != nil {
			return EError(c, err)
		}

		if !upd.Content.Equal(doc.Content) {
			logs, err := s.runRules(doc, *upd.Content)
			s.saveRulesLog(c, logs)
			if err != nil {
				return EError(c, err)
			}
		}
	}

	if err := dao.UpdateDocument(s.db, &doc, upd); err != nil {
		if errors.Is(err, dao.ErrVersionConflict) {
			return EErrorDefined(c, apierrors.ErrDocumentVersionConflict)
		}
		return EError(c, stack_error.TrackErrorStack(err).WithDocument(doc.ID))
	}

	return c.JSON(http.StatusOK, doc)
}

// deleteDocument godoc
// @id deleteDocument
// @Summary documents: удаление документа
// @Description Удаляет документ вместе с ревизиями и журналом правил
// @Tags Documents
// @Param docId path string true "ID документа"
// @Success 200 "документ удален"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/ [delete]
func (s *Services) deleteDocument(c echo.Context) error {
	doc := c.(DocumentContext).Document

	if err := dao.DeleteDocument(s.db, doc.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EErrorDefined(c, apierrors.ErrDocumentNotFound)
		}
		return EError(c, stack_error.TrackErrorStack(err).WithDocument(doc.ID))
	}
	return c.NoContent(http.StatusOK)
}

// getDocumentHTML godoc
// @id getDocumentHTML
// @Summary documents: HTML документа
// @Tags Documents
// @Produce json
// @Param docId path string true "ID документа"
// @Success 200 {object} DocumentHTMLResponse "HTML содержимого"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/html/ [get]
func (s *Services) getDocumentHTML(c echo.Context) error {
	doc := c.(DocumentContext).Document

	html, err := editor.ToHTML(doc.Content, doc.MultilineTag, s.registry)
	if err != nil {
		return EError(c, err)
	}
	if s.cfg.MinifyHTML {
		html = utils.MinifyHTML(html)
	}

	s.metrics.conversions.WithLabelValues("html").Inc()
	return c.JSON(http.StatusOK, DocumentHTMLResponse{
		ID:      doc.ID.String(),
		Title:   doc.Title,
		Version: doc.Version,
		HTML:    html,
	})
}

// getRevisionList godoc
// @id getRevisionList
// @Summary documents: список ревизий
// @Tags Documents
// @Produce json
// @Param docId path string true "ID документа"
// @Success 200 {array} dao.DocumentRevision "ревизии, последние первыми"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/revisions/ [get]
func (s *Services) getRevisionList(c echo.Context) error {
	doc := c.(DocumentContext).Document

	revs, err := dao.ListRevisions(s.db, doc.ID)
	if err != nil {
		return EError(c, stack_error.TrackErrorStack(err).WithDocument(doc.ID))
	}
	return c.JSON(http.StatusOK, revs)
}

// getRevision godoc
// @id getRevision
// @Summary documents: получение ревизии
// @Tags Documents
// @Produce json
// @Param docId path string true "ID документа"
// @Param version path int true "Версия"
// @Success 200 {object} dao.DocumentRevision "ревизия"
// @Failure 400 {object} apierrors.DefinedError "Некорректная версия"
// @Failure 404 {object} apierrors.DefinedError "Ревизия не найдена"
// @Router /api/documents/{docId}/revisions/{version}/ [get]
func (s *Services) getRevision(c echo.Context) error {
	doc := c.(DocumentContext).Document

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestValidate)
	}

	rev, err := dao.GetRevision(s.db, doc.ID, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EErrorDefined(c, apierrors.ErrRevisionNotFound)
		}
		return EError(c, stack_error.TrackErrorStack(err).WithDocument(doc.ID).AddContext("version", version))
	}
	return c.JSON(http.StatusOK, rev)
}

// getRulesLogList godoc
// @id getRulesLogList
// @Summary documents: журнал правил
// @Description Результаты запусков скрипта правил документа, вывод print и ошибки скрипта
// @Tags Documents
// @Produce json
// @Param docId path string true "ID документа"
// @Param offset query int false "Смещение" default(0)
// @Param limit query int false "Количество" default(20)
// @Success 200 {object} dao.PaginationResponse{result=[]dao.RulesLog} "записи журнала"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/rules-log/ [get]
func (s *Services) getRulesLogList(c echo.Context) error {
	doc := c.(DocumentContext).Document

	offset, limit, err := bindPagination(c)
	if err != nil {
		return EError(c, err)
	}

	resp, err := dao.ListRulesLog(s.db, doc.ID, offset, limit)
	if err != nil {
		return EError(c, stack_error.TrackErrorStack(err).WithDocument(doc.ID))
	}
	return c.JSON(http.StatusOK, resp)
}
