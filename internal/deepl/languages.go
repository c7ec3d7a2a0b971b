package deepl

import (
	"context"
	"net/http"
	"net/url"
)

// LanguageType selects source or target languages in Languages.
type LanguageType string

const (
	LanguageSource LanguageType = "source"
	LanguageTarget LanguageType = "target"
)

// LanguageInfo describes a language supported by the service.
type LanguageInfo struct {
	Code              string `json:"language"`
	Name              string `json:"name"`
	SupportsFormality bool   `json:"supports_formality,omitempty"`
}

// Languages lists the languages the service accepts as source or target.
func (c *Client) Languages(ctx context.Context, t LanguageType) ([]LanguageInfo, error) {
	if t != LanguageSource && t != LanguageTarget {
		return nil, validationError("language type must be %q or %q", LanguageSource, LanguageTarget)
	}

	var langs []LanguageInfo
	err := c.call(ctx, request{
		method: http.MethodGet,
		path:   "/languages",
		query:  url.Values{"type": {string(t)}},
	}, &langs)
	if err != nil {
		return nil, err
	}
	return langs, nil
}
