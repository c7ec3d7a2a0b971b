// Package placeholder protects structured content (fenced code blocks, inline
// code spans, HTML tags and {template} variables) during translation. Protect
// turns the text into XML in which each protected span is an empty <x i="n"/>
// element; translated with XML tag handling, the service keeps those elements
// in place, and Restore substitutes the originals back.
package placeholder

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Tag is the element name used for markers.
const Tag = "x"

var (
	// fenced code blocks: ```...``` (non-greedy, may span lines)
	reFencedCode = regexp.MustCompile("(?s)```.*?```")

	// inline code spans: `...`
	reInlineCode = regexp.MustCompile("`[^`]+`")

	// HTML/XML tags: opening, closing, and self-closing
	reHTMLTag = regexp.MustCompile(`<[^>]+>`)

	// template variables: {name} and {{ name }}
	reTemplateVar = regexp.MustCompile(`\{\{[^{}]+\}\}|\{[A-Za-z0-9_.]+\}`)

	reSentinel = regexp.MustCompile("\x00(\\d+)\x00")

	// marker in translated text; the service may normalise quoting or spacing
	reMarker = regexp.MustCompile(`<` + Tag + `\s+i\s*=\s*["'](\d+)["']\s*/>`)
)

// Protect returns text as XML with every protected span replaced by a marker,
// and the captured originals in marker order. Text without protected spans
// is still XML-escaped.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := len(markers)
		markers = append(markers, match)
		return "\x00" + strconv.Itoa(id) + "\x00"
	}

	// Order matters: fenced first (longest match), then inline, then tags.
	text = reFencedCode.ReplaceAllStringFunc(text, replace)
	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)
	text = reTemplateVar.ReplaceAllStringFunc(text, replace)

	text = html.EscapeString(text)
	text = reSentinel.ReplaceAllString(text, `<`+Tag+` i="$1"/>`)
	return text, markers
}

// Restore converts translated XML back to text, substituting markers with the
// originals captured by Protect. Unknown marker indices are left as-is.
func Restore(text string, markers []string) string {
	text = reMarker.ReplaceAllString(text, "\x00$1\x00")
	text = html.UnescapeString(text)
	return reSentinel.ReplaceAllStringFunc(text, func(match string) string {
		idx, err := strconv.Atoi(strings.Trim(match, "\x00"))
		if err != nil || idx < 0 || idx >= len(markers) {
			return fmt.Sprintf(`<%s i="%s"/>`, Tag, strings.Trim(match, "\x00"))
		}
		return markers[idx]
	})
}

// Validate reports the indices of markers missing from translated text.
func Validate(text string, markers []string) []int {
	found := make(map[int]bool, len(markers))
	for _, m := range reMarker.FindAllStringSubmatch(text, -1) {
		if idx, err := strconv.Atoi(m[1]); err == nil {
			found[idx] = true
		}
	}

	var missing []int
	for i := range markers {
		if !found[i] {
			missing = append(missing, i)
		}
	}
	return missing
}
