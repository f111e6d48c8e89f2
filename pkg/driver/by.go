package driver

import (
	"fmt"
	"strings"
)

// Kind identifies how a selector value is interpreted.
type Kind string

const (
	// KindCSS is a CSS selector (default)
	KindCSS Kind = "css"

	// KindXPath is an XPath expression
	KindXPath Kind = "xpath"

	// KindID matches the element id attribute
	KindID Kind = "id"

	// KindName matches the element name attribute
	KindName Kind = "name"

	// KindTagName matches the element tag
	KindTagName Kind = "tag"

	// KindClassName matches a single class name
	KindClassName Kind = "class"

	// KindLinkText matches anchors by their visible text
	KindLinkText Kind = "link"
)

// By is a selector used to resolve elements on the current page.
type By struct {
	Kind  Kind
	Value string
}

// CSS returns a CSS selector.
func CSS(selector string) By { return By{Kind: KindCSS, Value: selector} }

// XPath returns an XPath selector.
func XPath(expr string) By { return By{Kind: KindXPath, Value: expr} }

// ID returns a selector matching the id attribute.
func ID(id string) By { return By{Kind: KindID, Value: id} }

// Name returns a selector matching the name attribute.
func Name(name string) By { return By{Kind: KindName, Value: name} }

// TagName returns a selector matching an element tag.
func TagName(tag string) By { return By{Kind: KindTagName, Value: tag} }

// ClassName returns a selector matching a single class.
func ClassName(class string) By { return By{Kind: KindClassName, Value: class} }

// LinkText returns a selector matching anchors whose normalized text equals text.
func LinkText(text string) By { return By{Kind: KindLinkText, Value: text} }

// IsXPath reports whether Query returns an XPath expression rather than CSS.
func (b By) IsXPath() bool {
	return b.Kind == KindXPath || b.Kind == KindLinkText
}

// Query lowers the selector to either a CSS selector or an XPath expression.
// Use IsXPath to tell which one was produced.
func (b By) Query() string {
	switch b.Kind {
	case KindXPath:
		return b.Value
	case KindID:
		return fmt.Sprintf(`[id=%s]`, cssString(b.Value))
	case KindName:
		return fmt.Sprintf(`[name=%s]`, cssString(b.Value))
	case KindTagName:
		return b.Value
	case KindClassName:
		return "." + strings.TrimPrefix(b.Value, ".")
	case KindLinkText:
		return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathString(b.Value))
	default:
		return b.Value
	}
}

// String renders the selector for logs.
func (b By) String() string {
	kind := b.Kind
	if kind == "" {
		kind = KindCSS
	}
	return fmt.Sprintf("By.%s(%s)", kind, b.Value)
}

// ParseBy parses "kind=value" notation, e.g. "xpath=//div" or "id=login".
// A value without a recognised kind prefix is treated as CSS.
func ParseBy(s string) By {
	if kind, value, ok := strings.Cut(s, "="); ok {
		switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
		case KindCSS, KindXPath, KindID, KindName, KindTagName, KindClassName, KindLinkText:
			return By{Kind: Kind(strings.ToLower(strings.TrimSpace(kind))), Value: value}
		}
	}
	return CSS(s)
}

func cssString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// xpathString quotes s as an XPath 1.0 string literal, falling back to
// concat() when s contains both quote characters.
func xpathString(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
