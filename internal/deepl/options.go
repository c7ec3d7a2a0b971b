package deepl

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/valpere/deepler/internal/lang"
)

// SplitSentences controls how the service splits input into sentences.
type SplitSentences string

const (
	SplitNone       SplitSentences = "0"
	SplitDefault    SplitSentences = "1"
	SplitNoNewlines SplitSentences = "nonewlines"
)

// Formality selects the register of the translation.
type Formality string

const (
	FormalityMore       Formality = "more"
	FormalityLess       Formality = "less"
	FormalityPreferMore Formality = "prefer_more"
	FormalityPreferLess Formality = "prefer_less"
)

// TagHandling selects the markup the service should parse in the input.
type TagHandling string

const (
	TagHandlingXML  TagHandling = "xml"
	TagHandlingHTML TagHandling = "html"
)

// Param is one key/value pair of a form-encoded request.
type Param struct {
	Key   string
	Value string
}

// TextOptions configures a text translation. Setters overwrite earlier
// values; empty strings and empty lists leave a field unset. Only set
// fields are sent.
type TextOptions struct {
	targetLang lang.Language

	sourceLang         *lang.Language
	splitSentences     SplitSentences
	preserveFormatting bool
	formality          Formality
	glossaryID         string
	tagHandling        TagHandling
	outlineDetection   *bool
	nonSplittingTags   []string
	splittingTags      []string
	ignoreTags         []string
}

func NewTextOptions(target lang.Language) *TextOptions {
	return &TextOptions{targetLang: target}
}

func (o *TextOptions) SetSourceLang(l lang.Language) *TextOptions {
	if !l.Valid() {
		o.sourceLang = nil
		return o
	}
	o.sourceLang = &l
	return o
}

func (o *TextOptions) SetSplitSentences(s SplitSentences) *TextOptions {
	o.splitSentences = s
	return o
}

// SetPreserveFormatting is sent only when true, which is not the service default.
func (o *TextOptions) SetPreserveFormatting(v bool) *TextOptions {
	o.preserveFormatting = v
	return o
}

func (o *TextOptions) SetFormality(f Formality) *TextOptions {
	o.formality = f
	return o
}

func (o *TextOptions) SetGlossaryID(id string) *TextOptions {
	o.glossaryID = strings.TrimSpace(id)
	return o
}

func (o *TextOptions) SetTagHandling(t TagHandling) *TextOptions {
	o.tagHandling = t
	return o
}

// SetOutlineDetection is sent only when false; true is the service default.
func (o *TextOptions) SetOutlineDetection(v bool) *TextOptions {
	o.outlineDetection = &v
	return o
}

func (o *TextOptions) SetNonSplittingTags(tags ...string) *TextOptions {
	o.nonSplittingTags = cleanTags(tags)
	return o
}

func (o *TextOptions) SetSplittingTags(tags ...string) *TextOptions {
	o.splittingTags = cleanTags(tags)
	return o
}

func (o *TextOptions) SetIgnoreTags(tags ...string) *TextOptions {
	o.ignoreTags = cleanTags(tags)
	return o
}

// TargetLang returns the mandatory target language.
func (o *TextOptions) TargetLang() lang.Language {
	return o.targetLang
}

// Params returns the form representation: target_lang first, then one entry
// per set optional field in a fixed order.
func (o *TextOptions) Params() []Param {
	params := []Param{{"target_lang", o.targetLang.String()}}
	if o.sourceLang != nil {
		params = append(params, Param{"source_lang", o.sourceLang.String()})
	}
	if o.splitSentences != "" {
		params = append(params, Param{"split_sentences", string(o.splitSentences)})
	}
	if o.preserveFormatting {
		params = append(params, Param{"preserve_formatting", "1"})
	}
	if o.formality != "" {
		params = append(params, Param{"formality", string(o.formality)})
	}
	if o.glossaryID != "" {
		params = append(params, Param{"glossary_id", o.glossaryID})
	}
	if o.tagHandling != "" {
		params = append(params, Param{"tag_handling", string(o.tagHandling)})
	}
	if o.outlineDetection != nil && !*o.outlineDetection {
		params = append(params, Param{"outline_detection", "0"})
	}
	if len(o.nonSplittingTags) > 0 {
		params = append(params, Param{"non_splitting_tags", strings.Join(o.nonSplittingTags, ",")})
	}
	if len(o.splittingTags) > 0 {
		params = append(params, Param{"splitting_tags", strings.Join(o.splittingTags, ",")})
	}
	if len(o.ignoreTags) > 0 {
		params = append(params, Param{"ignore_tags", strings.Join(o.ignoreTags, ",")})
	}
	return params
}

// textPayload is the JSON body of a text translation.
type textPayload struct {
	Text               []string `json:"text,omitempty"`
	TargetLang         string   `json:"target_lang"`
	SourceLang         string   `json:"source_lang,omitempty"`
	SplitSentences     string   `json:"split_sentences,omitempty"`
	PreserveFormatting *bool    `json:"preserve_formatting,omitempty"`
	Formality          string   `json:"formality,omitempty"`
	GlossaryID         string   `json:"glossary_id,omitempty"`
	TagHandling        string   `json:"tag_handling,omitempty"`
	OutlineDetection   *bool    `json:"outline_detection,omitempty"`
	NonSplittingTags   []string `json:"non_splitting_tags,omitempty"`
	SplittingTags      []string `json:"splitting_tags,omitempty"`
	IgnoreTags         []string `json:"ignore_tags,omitempty"`
}

func (o *TextOptions) payload(texts []string) textPayload {
	p := textPayload{
		Text:             texts,
		TargetLang:       o.targetLang.String(),
		SplitSentences:   string(o.splitSentences),
		Formality:        string(o.formality),
		GlossaryID:       o.glossaryID,
		TagHandling:      string(o.tagHandling),
		NonSplittingTags: o.nonSplittingTags,
		SplittingTags:    o.splittingTags,
		IgnoreTags:       o.ignoreTags,
	}
	if o.sourceLang != nil {
		p.SourceLang = o.sourceLang.String()
	}
	if o.preserveFormatting {
		t := true
		p.PreserveFormatting = &t
	}
	if o.outlineDetection != nil && !*o.outlineDetection {
		f := false
		p.OutlineDetection = &f
	}
	return p
}

// MarshalJSON returns the structured representation, with tag lists as arrays.
func (o *TextOptions) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.payload(nil))
}

// DocumentOptions configures a document upload.
type DocumentOptions struct {
	targetLang lang.Language
	filePath   string

	sourceLang *lang.Language
	filename   string
	formality  Formality
	glossaryID string
}

func NewDocumentOptions(target lang.Language, filePath string) *DocumentOptions {
	return &DocumentOptions{targetLang: target, filePath: filePath}
}

func (o *DocumentOptions) SetSourceLang(l lang.Language) *DocumentOptions {
	if !l.Valid() {
		o.sourceLang = nil
		return o
	}
	o.sourceLang = &l
	return o
}

// SetFilename overrides the name the service sees for the uploaded file.
func (o *DocumentOptions) SetFilename(name string) *DocumentOptions {
	o.filename = strings.TrimSpace(name)
	return o
}

func (o *DocumentOptions) SetFormality(f Formality) *DocumentOptions {
	o.formality = f
	return o
}

func (o *DocumentOptions) SetGlossaryID(id string) *DocumentOptions {
	o.glossaryID = strings.TrimSpace(id)
	return o
}

func (o *DocumentOptions) TargetLang() lang.Language {
	return o.targetLang
}

func (o *DocumentOptions) FilePath() string {
	return o.filePath
}

// Params returns the non-file multipart fields.
func (o *DocumentOptions) Params() []Param {
	params := []Param{{"target_lang", o.targetLang.String()}}
	if o.sourceLang != nil {
		params = append(params, Param{"source_lang", o.sourceLang.String()})
	}
	if o.filename != "" {
		params = append(params, Param{"filename", o.filename})
	}
	if o.formality != "" {
		params = append(params, Param{"formality", string(o.formality)})
	}
	if o.glossaryID != "" {
		params = append(params, Param{"glossary_id", o.glossaryID})
	}
	return params
}

func toValues(params []Param) url.Values {
	values := make(url.Values, len(params))
	for _, p := range params {
		values.Add(p.Key, p.Value)
	}
	return values
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseFormality validates a formality name. An empty string is allowed and
// leaves the option unset.
func ParseFormality(s string) (Formality, error) {
	switch f := Formality(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormalityMore, FormalityLess, FormalityPreferMore, FormalityPreferLess:
		return f, nil
	}
	return "", validationError("unknown formality %q", s)
}

// ParseTagHandling validates a tag handling mode; empty leaves it unset.
func ParseTagHandling(s string) (TagHandling, error) {
	switch t := TagHandling(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TagHandlingXML, TagHandlingHTML:
		return t, nil
	}
	return "", validationError("unknown tag handling %q", s)
}

// ParseSplitSentences accepts "0", "1", "nonewlines" and empty.
func ParseSplitSentences(s string) (SplitSentences, error) {
	switch v := SplitSentences(strings.ToLower(strings.TrimSpace(s))); v {
	case "", SplitNone, SplitDefault, SplitNoNewlines:
		return v, nil
	}
	return "", validationError("unknown split_sentences value %q", s)
}
