// Package markdown renders Markdown input to HTML so it can be translated
// with HTML tag handling, leaving markup untouched by the service.
package markdown

import (
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders md as an HTML fragment. Fenced and inline code is wrapped in
// <code>, which callers can pass to the service as an ignored tag.
func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// IgnoreTags are the elements whose content must not be translated.
var IgnoreTags = []string{"code", "pre"}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}
