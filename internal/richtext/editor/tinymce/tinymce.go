// Пакет tinymce очищает DOM, полученный из редактора TinyMCE, от служебной разметки.
//
// Основные возможности:
//   - Удаление атрибутов data-mce-*.
//   - Отбрасывание служебных (bogus) узлов целиком или с сохранением их детей.
//   - Рекурсивная очистка поддерева html.Node без изменения исходного дерева.
package tinymce

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// AttrPrefix - префикс служебных атрибутов редактора.
	AttrPrefix = "data-mce-"
	// BogusAttr помечает служебный узел. Значение "all" означает, что узел отбрасывается вместе с детьми.
	BogusAttr = "data-mce-bogus"
)

// CreateElement строит элемент из имени тега, атрибутов и уже преобразованных детей.
// Возвращает nil для полностью служебного узла, сами children для частично служебного
// и новый элемент без data-mce-* атрибутов в остальных случаях.
func CreateElement(tag string, attrs []html.Attribute, children ...*html.Node) []*html.Node {
	if bogus, ok := getAttr(attrs, BogusAttr); ok {
		if bogus == "all" {
			return nil
		}
		return children
	}

	el := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, attr := range attrs {
		if strings.HasPrefix(attr.Key, AttrPrefix) {
			continue
		}
		el.Attr = append(el.Attr, attr)
	}

	for _, child := range children {
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		el.AppendChild(child)
	}

	return []*html.Node{el}
}

// FromDOM возвращает очищенную копию поддерева. Комментарии и doctype отбрасываются.
func FromDOM(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}

	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
		return CreateElement(n.Data, n.Attr, convertChildren(n)...)
	case html.DocumentNode:
		doc := &html.Node{Type: html.DocumentNode}
		for _, child := range convertChildren(n) {
			doc.AppendChild(child)
		}
		return []*html.Node{doc}
	default:
		return nil
	}
}

func convertChildren(n *html.Node) []*html.Node {
	var res []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res = append(res, FromDOM(c)...)
	}
	return res
}

func getAttr(attrs []html.Attribute, key string) (string, bool) {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
