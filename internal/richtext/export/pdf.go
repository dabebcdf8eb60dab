package export

import (
	"io"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"golang.org/x/net/html"
)

const (
	fontFamily   = "Helvetica"
	textSize     = 12
	titleSize    = 20
	lineHeight   = 6
	listIndent   = 5
	defaultLeftM = 10
)

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string

	// Текущие стили, накопленные при спуске по дереву
	bold, italic, underline, strike bool
	link                            string
}

// ToPDF пишет значение в PDF формата A4. Используются встроенные шрифты, символы вне
// cp1252 при этом заменяются.
func ToPDF(out io.Writer, title string, v editor.Value, multilineTag string, reg *editor.FormatRegistry) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetModificationDate(time.Unix(0, 0).UTC())

	w := pdfWriter{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetTitle(title, true)
		pdf.SetFont(fontFamily, "B", titleSize)
		pdf.Write(10, w.tr(title))
		pdf.Ln(14)
	}

	root, _ := editor.ToDOM(v, multilineTag, reg)

	if multilineTag == "" {
		w.writeChildren(root)
		pdf.Ln(-1)
	} else {
		for line := root.FirstChild; line != nil; line = line.NextSibling {
			w.writeLine(line, multilineTag == "li")
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(out)
}

func (w *pdfWriter) writeLine(line *html.Node, bullet bool) {
	if bullet {
		w.pdf.SetLeftMargin(defaultLeftM + listIndent)
		w.pdf.SetX(defaultLeftM)
		w.setFont()
		w.write("- ")
	}
	w.writeChildren(line)
	w.pdf.Ln(-1)
	w.pdf.Ln(2)
	w.pdf.SetLeftMargin(defaultLeftM)
}

func (w *pdfWriter) writeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.writeNode(c)
	}
}

func (w *pdfWriter) writeNode(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return
		}
		w.setFont()
		w.write(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.Data {
	case "br":
		w.pdf.Ln(lineHeight)
		return
	case "img":
		alt := getAttrValue("alt", n.Attr)
		if alt == "" {
			alt = "image"
		}
		w.setFont()
		w.pdf.WriteLinkString(lineHeight, w.tr("["+alt+"]"), getAttrValue("src", n.Attr))
		return
	}

	prev := *w
	switch n.Data {
	case "strong", "b":
		w.bold = true
	case "em", "i":
		w.italic = true
	case "u":
		w.underline = true
	case "s", "del", "strike":
		w.strike = true
	case "a":
		w.link = getAttrValue("href", n.Attr)
	}
	w.writeChildren(n)

	w.bold, w.italic, w.underline, w.strike, w.link = prev.bold, prev.italic, prev.underline, prev.strike, prev.link
}

func (w *pdfWriter) setFont() {
	var style strings.Builder
	if w.bold {
		style.WriteString("B")
	}
	if w.italic {
		style.WriteString("I")
	}
	if w.underline || w.link != "" {
		style.WriteString("U")
	}
	if w.strike {
		style.WriteString("S")
	}
	w.pdf.SetFont(fontFamily, style.String(), textSize)

	if w.link != "" {
		w.pdf.SetTextColor(0, 0, 200)
	} else {
		w.pdf.SetTextColor(0, 0, 0)
	}
}

func (w *pdfWriter) write(text string) {
	w.pdf.WriteLinkString(lineHeight, w.tr(text), w.link)
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
