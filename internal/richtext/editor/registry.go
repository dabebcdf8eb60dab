package editor

import (
	"sync"
)

// FormatType описывает, как тип формата отображается в HTML.
type FormatType struct {
	Name    string
	TagName string
	Object  bool
}

// FormatRegistry - реестр типов форматов. Передается явно туда, где нужен,
// глобального изменяемого реестра нет.
type FormatRegistry struct {
	mu     sync.RWMutex
	byType map[string]FormatType
	byTag  map[string]FormatType
}

func NewFormatRegistry(types ...FormatType) *FormatRegistry {
	r := &FormatRegistry{
		byType: make(map[string]FormatType),
		byTag:  make(map[string]FormatType),
	}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// DefaultFormats возвращает новый реестр со стандартными форматами.
func DefaultFormats() *FormatRegistry {
	return NewFormatRegistry(
		FormatType{Name: "bold", TagName: "strong"},
		FormatType{Name: "italic", TagName: "em"},
		FormatType{Name: "underline", TagName: "u"},
		FormatType{Name: "strikethrough", TagName: "s"},
		FormatType{Name: "code", TagName: "code"},
		FormatType{Name: "subscript", TagName: "sub"},
		FormatType{Name: "superscript", TagName: "sup"},
		FormatType{Name: "link", TagName: "a"},
		FormatType{Name: "image", TagName: "img", Object: true},
		FormatType{Name: LineBreakType, TagName: "br", Object: true},
	)
}

func (r *FormatRegistry) Register(t FormatType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t.Name] = t
	r.byTag[t.TagName] = t
}

// TagName возвращает тег для типа формата. Для неизвестного типа тегом служит само имя типа.
func (r *FormatRegistry) TagName(formatType string) string {
	if r != nil {
		r.mu.RLock()
		t, ok := r.byType[formatType]
		r.mu.RUnlock()
		if ok {
			return t.TagName
		}
	}
	return formatType
}

// ByTag возвращает тип формата для HTML-тега. Для неизвестного тега тип совпадает с тегом.
func (r *FormatRegistry) ByTag(tag string) FormatType {
	if r != nil {
		r.mu.RLock()
		t, ok := r.byTag[tag]
		r.mu.RUnlock()
		if ok {
			return t
		}
	}
	return FormatType{Name: tag, TagName: tag}
}

func (r *FormatRegistry) IsObject(formatType string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[formatType].Object
}
