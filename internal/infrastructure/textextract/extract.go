package textextract

import (
	"fmt"
	"strings"

	"design-checker/internal/domain/entity"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skipTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
}

// Extract collects headings, paragraphs, buttons and links from rawHTML.
// A fragment is marked invisible when it or an ancestor carries the hidden
// attribute, aria-hidden="true", or an inline display:none/visibility:hidden.
// Stylesheets are not evaluated; callers with a live page mark rendered
// visibility with the hidden attribute before calling.
func Extract(rawHTML string) (*entity.ExtractedText, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	out := &entity.ExtractedText{}
	walk(root, true, out)
	return out, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func walk(n *html.Node, visible bool, out *entity.ExtractedText) {
	if n.Type == html.ElementNode {
		if skipTags[n.DataAtom] {
			return
		}
		visible = visible && !isHidden(n)

		if bucket := bucketFor(n, out); bucket != nil {
			if text := collapse(textContent(n)); text != "" {
				*bucket = append(*bucket, entity.TextFragment{Text: text, Visible: visible})
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visible, out)
	}
}

func bucketFor(n *html.Node, out *entity.ExtractedText) *[]entity.TextFragment {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return &out.Headings
	case atom.P:
		return &out.Paragraphs
	case atom.Button:
		return &out.Buttons
	case atom.A:
		if attr(n, "role") == "button" {
			return &out.Buttons
		}
		return &out.Links
	}
	if attr(n, "role") == "button" {
		return &out.Buttons
	}
	return nil
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(a.Val), "true") {
				return true
			}
		case "style":
			if hiddenByStyle(a.Val) {
				return true
			}
		}
	}
	return false
}

func hiddenByStyle(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important")))
		if (prop == "display" && val == "none") || (prop == "visibility" && val == "hidden") {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case html.ElementNode:
			if skipTags[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
