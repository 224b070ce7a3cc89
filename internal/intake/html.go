package intake

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ppiankov/symptia/internal/model"
	"golang.org/x/net/html"
)

// HTMLAdapter reads a saved intake page as a single description.
// Patient fields may be carried in <meta name="age|gender|duration" content="...">.
type HTMLAdapter struct{}

func NewHTMLAdapter() *HTMLAdapter {
	return &HTMLAdapter{}
}

func (a *HTMLAdapter) Name() string {
	return "html"
}

func (a *HTMLAdapter) CanHandle(filename string) bool {
	return hasExt(filename, ".html", ".htm")
}

func (a *HTMLAdapter) Parse(data []byte) ([]model.Intake, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	in := model.Intake{Text: VisibleText(doc)}
	for _, meta := range findAll(doc, isElement("meta")) {
		content := getAttribute(meta, "content")
		switch strings.ToLower(getAttribute(meta, "name")) {
		case "age":
			in.Age = content
		case "gender":
			in.Gender = content
		case "duration":
			in.Duration = content
		}
	}

	if strings.TrimSpace(in.Text) == "" {
		return nil, nil
	}
	return []model.Intake{in}, nil
}

// VisibleText extracts text nodes, skipping scripts and styles.
// Block elements end a line so sentence splitting sees paragraph breaks.
func VisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}

	walk(n)

	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "br", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "section", "article", "textarea":
		return true
	}
	return false
}

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func getAttribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func findAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}
