package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PageContent is the readable text of a page.
type PageContent struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// PageText returns the visible text of the current document, with
// block elements on their own lines. maxLength <= 0 means no limit.
func (s *Session) PageText(maxLength int) (*PageContent, error) {
	v, err := s.drv.ExecuteScript("return document.documentElement.outerHTML;")
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	raw, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("read page html: unexpected %T", v)
	}
	return ExtractText(raw, maxLength)
}

// ExtractText parses rawHTML and collects its readable text.
func ExtractText(rawHTML string, maxLength int) (*PageContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &textWriter{max: maxLength}
	w.walk(doc)

	return &PageContent{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
		Text:        strings.TrimSpace(w.b.String()),
		Truncated:   w.truncated,
	}, nil
}

type textWriter struct {
	b         strings.Builder
	max       int
	truncated bool
	// pendingBreak defers a newline until the next text so that runs of
	// empty blocks do not stack blank lines.
	pendingBreak bool
}

func (w *textWriter) walk(n *html.Node) {
	if w.truncated {
		return
	}
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] || tag == "head" {
			return
		}
		if tag == "br" {
			w.pendingBreak = true
			return
		}
		if blockElements[tag] {
			w.pendingBreak = true
			defer func() { w.pendingBreak = true }()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) text(data string) {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return
	}

	sep := ""
	if w.b.Len() > 0 {
		sep = " "
		if w.pendingBreak {
			sep = "\n"
		}
	}
	w.pendingBreak = false

	chunk := sep + text
	if w.max > 0 && w.b.Len()+len(chunk) > w.max {
		remaining := w.max - w.b.Len()
		if remaining > 0 {
			w.b.WriteString(chunk[:remaining])
		}
		w.b.WriteString("...")
		w.truncated = true
		return
	}
	w.b.WriteString(chunk)
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "article": true,
	"header": true, "footer": true, "nav": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true,
	"form": true, "fieldset": true, "blockquote": true, "pre": true,
}

func findTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

func findMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					isDescription = strings.EqualFold(attr.Val, "description")
				case "content":
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil && description == ""; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return description
}
