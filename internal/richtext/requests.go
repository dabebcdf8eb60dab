// Структуры запросов и ответов HTTP API сервиса форматированного текста.
package richtext

import (
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"github.com/gofrs/uuid"
)

type SplitRequest struct {
	Text      string `json:"text"`
	Delimiter string `json:"delimiter" validate:"required"`
}

type ValidateRequest struct {
	Value editor.Value `json:"value"`
}

type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type ConvertRequest struct {
	Value        editor.Value `json:"value"`
	MultilineTag *string      `json:"multiline_tag" validate:"omitempty,multilineTag"`
	Title        string       `json:"title"`
	Minify       *bool        `json:"minify"`
}

// DOMPoint позиция каретки в HTML: путь индексов дочерних узлов от корня и смещение в узле.
type DOMPoint struct {
	Path   []int `json:"path"`
	Offset int   `json:"offset"`
}

type ConvertHTMLResponse struct {
	HTML  string    `json:"html"`
	Start *DOMPoint `json:"start,omitempty" extensions:"x-nullable"`
	End   *DOMPoint `json:"end,omitempty" extensions:"x-nullable"`
}

type BatchConvertRequest struct {
	Values       []editor.Value `json:"values" validate:"required"`
	MultilineTag *string        `json:"multiline_tag" validate:"omitempty,multilineTag"`
}

type ParseHTMLRequest struct {
	HTML         string  `json:"html"`
	MultilineTag *string `json:"multiline_tag" validate:"omitempty,multilineTag"`
	// CSS селектор элемента, содержимое которого разбирается. Пустой означает весь HTML
	Selector string `json:"selector"`
}

type ParseTipTapResponse struct {
	Value        editor.Value `json:"value"`
	MultilineTag string       `json:"multiline_tag"`
}

type FormatRequest struct {
	Value      editor.Value      `json:"value"`
	Type       string            `json:"type" validate:"formatType"`
	Attributes editor.Attributes `json:"attributes"`
	Start      *int              `json:"start"`
	End        *int              `json:"end"`
	Toggle     bool              `json:"toggle"`
}

// Range возвращает границы операции: явно заданные или текущее выделение значения.
func (req *FormatRequest) Range() (int, int, bool) {
	start, end := req.Start, req.End
	if start == nil {
		start = req.Value.Start
	}
	if end == nil {
		end = req.Value.End
	}
	if start == nil || end == nil || *start < 0 || *end < 0 || *start > req.Value.Len() || *end > req.Value.Len() {
		return 0, 0, false
	}
	return *start, *end, true
}

type DocumentRequest struct {
	Title        string        `json:"title" validate:"documentTitle"`
	MultilineTag *string       `json:"multiline_tag" validate:"omitempty,multilineTag"`
	Content      *editor.Value `json:"content"`
	HTML         *string       `json:"html"`
	RulesScript  *string       `json:"rules_script"`
}

type UpdateDocumentRequest struct {
	Title        *string       `json:"title" validate:"omitempty,documentTitle"`
	MultilineTag *string       `json:"multiline_tag" validate:"omitempty,multilineTag"`
	Content      *editor.Value `json:"content"`
	HTML         *string       `json:"html"`
	RulesScript  *string       `json:"rules_script"`

	// Версия, которую видел клиент. Если документ уже изменен, запрос отклоняется
	Version *int `json:"version" validate:"omitempty,min=1"`
}

func (req *UpdateDocumentRequest) Bind(upd *dao.DocumentUpdate) {
	upd.Title = req.Title
	upd.MultilineTag = req.MultilineTag
	upd.Content = req.Content
	upd.RulesScript = req.RulesScript
}

// DocumentLight документ в списке: без содержимого, с коротким текстовым превью.
type DocumentLight struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Preview   string    `json:"preview"`
}

type DocumentHTMLResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version int    `json:"version"`
	HTML    string `json:"html"`
}

type PaginationRequest struct {
	Offset int `query:"offset" validate:"min=0"`
	Limit  int `query:"limit" validate:"min=0,max=100"`
}
