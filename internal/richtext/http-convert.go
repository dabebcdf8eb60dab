// Операции над значениями форматированного текста без хранения: разбиение, проверка,
// преобразование в HTML, TipTap, Markdown и PDF, разбор HTML и TipTap, применение форматов.
package richtext

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/apierrors"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/tiptap"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/export"
	policy "github.com/WordPress/gutenberg-sub061/internal/richtext/redactor-policy"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/utils"
	"github.com/WordPress/gutenberg-sub061/pkg/limiter"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize максимальное число значений в одном пакетном преобразовании.
const MaxBatchSize = 100

func (s *Services) AddConvertServices(g *echo.Group) {
	g.POST("split/", s.splitText)
	g.POST("validate/", s.validateValue)

	g.POST("convert/html/", s.convertToHTML)
	g.POST("convert/batch/", s.convertBatchToHTML)
	g.POST("convert/tiptap/", s.convertToTipTap)
	g.POST("convert/markdown/", s.convertToMarkdown)
	g.POST("convert/pdf/", s.convertToPDF)

	g.POST("parse/html/", s.parseHTML)
	g.POST("parse/tiptap/", s.parseTipTap)

	g.POST("format/apply/", s.applyFormat)
	g.POST("format/remove/", s.removeFormat)
}

func (s *Services) multilineTag(tag *string) string {
	if tag == nil {
		return s.cfg.DefaultMultilineTag
	}
	return *tag
}

// checkValue проверяет корректность значения и лимит длины текста.
func (s *Services) checkValue(v editor.Value, documentId uuid.UUID) error {
	if err := editor.Validate(v); err != nil {
		s.metrics.invalidValues.Inc()
		return apierrors.ErrInvalidValue.WithFormattedMessage(strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	return checkTextLength(documentId, v.Len())
}

func checkTextLength(documentId uuid.UUID, length int) error {
	if err := limiter.Limiter.CheckTextLength(documentId, length); err != nil {
		if errors.Is(err, limiter.ErrTextTooLong) {
			limit := limiter.Limiter.GetTextLimit(documentId)
			if limit < 0 {
				return apierrors.ErrValueTooLarge.WithFormattedMessage()
			}
			return apierrors.ErrValueTooLarge.WithFormattedMessage(fmt.Sprintf(": %s / %s",
				humanize.Comma(int64(length)), humanize.Comma(int64(limit))))
		}
		return apierrors.ErrLimiterUnavailable
	}
	return nil
}

func validationMessages(err error) []string {
	if err == nil {
		return []string{}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var res []string
		for _, e := range joined.Unwrap() {
			res = append(res, e.Error())
		}
		return res
	}
	return []string{err.Error()}
}

// splitText godoc
// @id splitText
// @Summary value: разбиение текста
// @Description Разбивает текст по разделителю. Пустые части сохраняются, пустой текст дает одну пустую часть
// @Tags Values
// @Accept json
// @Produce json
// @Param data body SplitRequest true "Текст и разделитель"
// @Success 200 {array} string "части текста"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/split/ [post]
func (s *Services) splitText(c echo.Context) error {
	var req SplitRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}

	return c.JSON(http.StatusOK, editor.Split(req.Text, req.Delimiter))
}

// validateValue godoc
// @id validateValue
// @Summary value: проверка значения
// @Description Проверяет согласованность текста, стеков форматов и выделения, возвращает все нарушения
// @Tags Values
// @Accept json
// @Produce json
// @Param data body ValidateRequest true "Значение"
// @Success 200 {object} ValidateResponse "результат проверки"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/validate/ [post]
func (s *Services) validateValue(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}

	err := editor.Validate(req.Value)
	if err != nil {
		s.metrics.invalidValues.Inc()
	}
	return c.JSON(http.StatusOK, ValidateResponse{
		Valid:  err == nil,
		Errors: validationMessages(err),
	})
}

// convertToHTML godoc
// @id convertToHTML
// @Summary convert: значение в HTML
// @Description Строит HTML значения и возвращает положения границ выделения в DOM
// @Tags Convert
// @Accept json
// @Produce json
// @Param data body ConvertRequest true "Значение"
// @Success 200 {object} ConvertHTMLResponse "HTML и позиции выделения"
// @Failure 400 {object} apierrors.DefinedError "Некорректное значение"
// @Failure 413 {object} apierrors.DefinedError "Превышен лимит длины текста"
// @Router /api/convert/html/ [post]
func (s *Services) convertToHTML(c echo.Context) error {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}
	if err := s.checkValue(req.Value, uuid.Nil); err != nil {
		return EError(c, err)
	}

	root, sel := editor.ToDOM(req.Value, s.multilineTag(req.MultilineTag), s.registry)

	var resp ConvertHTMLResponse
	if sel.Start != nil {
		path, offset := sel.Start.Path(root)
		resp.Start = &DOMPoint{Path: path, Offset: offset}
	}
	if sel.End != nil {
		path, offset := sel.End.Path(root)
		resp.End = &DOMPoint{Path: path, Offset: offset}
	}

	html, err := editor.RenderHTML(root)
	if err != nil {
		return EError(c, err)
	}
	if (req.Minify != nil && *req.Minify) || (req.Minify == nil && s.cfg.MinifyHTML) {
		html = utils.MinifyHTML(html)
	}
	resp.HTML = html

	s.metrics.conversions.WithLabelValues("html").Inc()
	return c.JSON(http.StatusOK, resp)
}

// convertBatchToHTML godoc
// @id convertBatchToHTML
// @Summary convert: пакетное преобразование в HTML
// @Description Преобразует несколько значений параллельно, порядок результатов совпадает с порядком значений
// @Tags Convert
// @Accept json
// @Produce json
// @Param data body BatchConvertRequest true "Значения"
// @Success 200 {array} string "HTML значений"
// @Failure 400 {object} apierrors.DefinedError "Некорректное значение или слишком большой пакет"
// @Router /api/convert/batch/ [post]
func (s *Services) convertBatchToHTML(c echo.Context) error {
	var req BatchConvertRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}
	if len(req.Values) > MaxBatchSize {
		return EErrorDefined(c, apierrors.ErrBatchTooLarge)
	}

	tag := s.multilineTag(req.MultilineTag)
	result := make([]string, len(req.Values))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range req.Values {
		g.Go(func() error {
			if err := s.checkValue(v, uuid.Nil); err != nil {
				return err
			}
			html, err := editor.ToHTML(v, tag, s.registry)
			if err != nil {
				return err
			}
			result[i] = html
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EError(c, err)
	}

	s.metrics.conversions.WithLabelValues("html").Add(float64(len(result)))
	return c.JSON(http.StatusOK, result)
}

// convertToTipTap godoc
// @id convertToTipTap
// @Summary convert: значение в документ TipTap
// @Tags Convert
// @Accept json
// @Produce json
// @Param data body ConvertRequest true "Значение"
// @Success 200 {object} tiptap.TipTapDocument "документ TipTap"
// @Failure 400 {object} apierrors.DefinedError "Некорректное значение"
// @Router /api/convert/tiptap/ [post]
func (s *Services) convertToTipTap(c echo.Context) error {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}
	if err := s.checkValue(req.Value, uuid.Nil); err != nil {
		return EError(c, err)
	}

	s.metrics.conversions.WithLabelValues("tiptap").Inc()
	return c.JSON(http.StatusOK, tiptap.SerializeDocument(req.Value, s.multilineTag(req.MultilineTag)))
}

// convertToMarkdown godoc
// @id convertToMarkdown
// @Summary convert: значение в Markdown
// @Tags Convert
// @Accept json
// @Produce text/markdown
// @Param data body ConvertRequest true "Значение и необязательный заголовок"
// @Success 200 {string} string "Markdown"
// @Failure 400 {object} apierrors.DefinedError "Некорректное значение"
// @Router /api/convert/markdown/ [post]
func (s *Services) convertToMarkdown(c echo.Context) error {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}
	if err := s.checkValue(req.Value, uuid.Nil); err != nil {
		return EError(c, err)
	}

	var buf bytes.Buffer
	if err := export.ToMarkdown(&buf, req.Title, req.Value, s.multilineTag(req.MultilineTag)); err != nil {
		return EErrorDefined(c, apierrors.ErrExportFailed)
	}

	s.metrics.conversions.WithLabelValues("markdown").Inc()
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

// convertToPDF godoc
// @id convertToPDF
// @Summary convert: значение в PDF
// @Tags Convert
// @Accept json
// @Produce application/pdf
// @Param data body ConvertRequest true "Значение и необязательный заголовок"
// @Success 200 {file} binary "PDF"
// @Failure 400 {object} apierrors.DefinedError "Некорректное значение"
// @Failure 500 {object} apierrors.DefinedError "Ошибка экспорта"
// @Router /api/convert/pdf/ [post]
func (s *Services) convertToPDF(c echo.Context) error {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}
	if err := s.checkValue(req.Value, uuid.Nil); err != nil {
		return EError(c, err)
	}

	var buf bytes.Buffer
	if err := export.ToPDF(&buf, req.Title, req.Value, s.multilineTag(req.MultilineTag), s.registry); err != nil {
		return EErrorDefined(c, apierrors.ErrExportFailed)
	}

	s.metrics.conversions.WithLabelValues("pdf").Inc()
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// parseHTML godoc
// @id parseHTML
// @Summary parse: HTML в значение
// @Description Разбирает HTML в значение. Если задан selector, разбирается только содержимое первого подходящего элемента. Служебная разметка редактора отбрасывается, при SANITIZE_INPUT HTML предварительно очищается
// @Tags Parse
// @Accept json
// @Produce json
// @Param data body ParseHTMLRequest true "HTML"
// @Success 200 {object} edtypes.Value "значение"
// @Failure 400 {object} apierrors.DefinedError "Некорректный HTML или селектор не найден"
// @Router /api/parse/html/ [post]
func (s *Services) parseHTML(c echo.Context) error {
	var req ParseHTMLRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrRequestValidate)
	}

	body := req.HTML
	if req.Selector != "" {
		var err error
		body, err = editor.SelectHTML(strings.NewReader(body), req.Selector)
		if errors.Is(err, editor.ErrSelectorNotFound) {
			return EErrorDefined(c, apierrors.ErrHTMLSelector)
		}
		if err != nil {
			return EErrorDefined(c, apierrors.ErrHTMLParse)
		}
	}

	v, err := s.valueFromHTML(body, s.multilineTag(req.MultilineTag))
	if err != nil {
		return EError(c, err)
	}
	if err := checkTextLength(uuid.Nil, v.Len()); err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, v)
}

func (s *Services) valueFromHTML(body string, multilineTag string) (editor.Value, error) {
	if s.cfg.SanitizeInput {
		body = policy.Sanitize(body)
	}
	v, err := editor.ParseHTML(strings.NewReader(body), multilineTag, s.registry)
	if err != nil {
		return editor.Value{}, apierrors.ErrHTMLParse
	}
	return v, nil
}

// parseTipTap godoc
// @id parseTipTap
// @Summary parse: документ TipTap в значение
// @Tags Parse
// @Accept json
// @Produce json
// @Param data body tiptap.TipTapDocument true "Документ TipTap"
// @Success 200 {object} ParseTipTapResponse "значение и тег строк"
// @Failure 400 {object} apierrors.DefinedError "Некорректный документ"
// @Router /api/parse/tiptap/ [post]
func (s *Services) parseTipTap(c echo.Context) error {
	v, tag, err := tiptap.ParseJSON(c.Request().Body)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrTipTapParse)
	}
	if err := checkTextLength(uuid.Nil, v.Len()); err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, ParseTipTapResponse{Value: v, MultilineTag: tag})
}

// formatRange проверяет запрос операции с форматом и возвращает ее границы.
func (s *Services) formatRange(c echo.Context, req *FormatRequest) (int, int, error) {
	if err := c.Bind(req); err != nil {
		return 0, 0, err
	}
	if req.Type == "" {
		return 0, 0, apierrors.ErrFormatTypeRequired
	}
	if err := c.Validate(req); err != nil {
		return 0, 0, apierrors.ErrRequestValidate
	}
	if err := s.checkValue(req.Value, uuid.Nil); err != nil {
		return 0, 0, err
	}
	start, end, ok := req.Range()
	if !ok || start > end {
		return 0, 0, apierrors.ErrInvalidRange
	}
	return start, end, nil
}

// applyFormat godoc
// @id applyFormat
// @Summary format: применение формата
// @Description Применяет формат к диапазону (по умолчанию к выделению). Для объектных типов диапазон заменяется объектом, при toggle формат снимается, если уже активен
// @Tags Format
// @Accept json
// @Produce json
// @Param data body FormatRequest true "Значение, формат и диапазон"
// @Success 200 {object} edtypes.Value "новое значение"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/format/apply/ [post]
func (s *Services) applyFormat(c echo.Context) error {
	var req FormatRequest
	start, end, err := s.formatRange(c, &req)
	if err != nil {
		return EError(c, err)
	}

	f := editor.Format{
		Type:       req.Type,
		Attributes: req.Attributes,
		Object:     s.registry.IsObject(req.Type),
	}

	var v editor.Value
	switch {
	case f.Object:
		v = editor.InsertObject(req.Value, f, start, end)
	case req.Toggle:
		v = editor.ToggleFormat(req.Value, f, start, end)
	default:
		v = editor.ApplyFormat(req.Value, f, start, end)
	}
	if err := checkTextLength(uuid.Nil, v.Len()); err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, v)
}

// removeFormat godoc
// @id removeFormat
// @Summary format: снятие формата
// @Tags Format
// @Accept json
// @Produce json
// @Param data body FormatRequest true "Значение, тип формата и диапазон"
// @Success 200 {object} edtypes.Value "новое значение"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/format/remove/ [post]
func (s *Services) removeFormat(c echo.Context) error {
	var req FormatRequest
	start, end, err := s.formatRange(c, &req)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, editor.RemoveFormat(req.Value, req.Type, start, end))
}
