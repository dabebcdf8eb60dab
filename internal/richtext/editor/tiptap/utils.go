package tiptap

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
)

// attrToString приводит значение атрибута JSON к строке. nil пропускается.
func attrToString(val interface{}) (string, bool) {
	switch v := val.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}

// attrsToAttributes сортирует ключи, порядок в map не определен.
func attrsToAttributes(attrs map[string]interface{}) editor.Attributes {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var res editor.Attributes
	for _, k := range keys {
		if val, ok := attrToString(attrs[k]); ok {
			res = append(res, editor.Attribute{Key: k, Val: val})
		}
	}
	return res
}

func attributesToAttrs(attrs editor.Attributes) map[string]interface{} {
	if len(attrs) == 0 {
		return nil
	}
	res := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		res[a.Key] = a.Val
	}
	return res
}
