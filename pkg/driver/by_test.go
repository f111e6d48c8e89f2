package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBy_Query(t *testing.T) {
	tests := []struct {
		name    string
		by      By
		query   string
		isXPath bool
	}{
		{name: "css", by: CSS("div.item > a"), query: "div.item > a"},
		{name: "xpath", by: XPath("//div[@id='x']"), query: "//div[@id='x']", isXPath: true},
		{name: "id", by: ID("login"), query: `[id="login"]`},
		{name: "id with quote", by: ID(`a"b`), query: `[id="a\"b"]`},
		{name: "name", by: Name("email"), query: `[name="email"]`},
		{name: "tag", by: TagName("body"), query: "body"},
		{name: "class", by: ClassName("btn"), query: ".btn"},
		{name: "class with dot", by: ClassName(".btn"), query: ".btn"},
		{name: "link text", by: LinkText("Sign in"), query: `//a[normalize-space(.)="Sign in"]`, isXPath: true},
		{name: "link text with double quote", by: LinkText(`say "hi"`), query: `//a[normalize-space(.)='say "hi"']`, isXPath: true},
		{name: "zero value is css", by: By{Value: "p"}, query: "p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.query, tt.by.Query())
			assert.Equal(t, tt.isXPath, tt.by.IsXPath())
		})
	}
}

func TestXPathString_BothQuotes(t *testing.T) {
	assert.Equal(t, `concat("it's ", '"', "quoted", '"')`, xpathString(`it's "quoted"`))
	assert.Equal(t, `'"'`, xpathString(`"`))
}

func TestParseBy(t *testing.T) {
	assert.Equal(t, XPath("//a"), ParseBy("xpath=//a"))
	assert.Equal(t, ID("main"), ParseBy("id=main"))
	assert.Equal(t, ClassName("x"), ParseBy("CLASS=x"))
	assert.Equal(t, CSS("input[type=text]"), ParseBy("input[type=text]"))
	assert.Equal(t, CSS("#app"), ParseBy("#app"))
}

func TestBy_String(t *testing.T) {
	assert.Equal(t, "By.css(#a)", By{Value: "#a"}.String())
	assert.Equal(t, "By.xpath(//a)", XPath("//a").String())
}

func TestFirst(t *testing.T) {
	assert.Nil(t, First(nil))
}
