package frame

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTML returns one frame per top-level <table> in the document. The first
// row names the columns and colspan is expanded by repeating the cell value.
func FromHTML(r io.Reader) ([]*Frame, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var frames []*Frame
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			if fr := tableFrame(n); fr != nil {
				frames = append(frames, fr)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return frames, nil
}

func tableFrame(table *html.Node) *Frame {
	var records [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// Nested tables become their own frames only when top-level.
				continue
			case atom.Tr:
				records = append(records, rowCells(c))
			default:
				walk(c)
			}
		}
	}
	walk(table)
	if len(records) == 0 {
		return nil
	}
	return FromStrings(records, true)
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		text := strings.Join(strings.Fields(textContent(c)), " ")
		span := 1
		for _, a := range c.Attr {
			if a.Key == "colspan" {
				if n, err := strconv.Atoi(a.Val); err == nil && n > 1 && n <= 1000 {
					span = n
				}
			}
		}
		for i := 0; i < span; i++ {
			cells = append(cells, text)
		}
	}
	return cells
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
