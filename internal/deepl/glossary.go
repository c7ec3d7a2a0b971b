package deepl

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/deepler/internal/glossary"
	"github.com/valpere/deepler/internal/lang"
)

// GlossaryLanguagePair is a language pair glossaries can be created for.
type GlossaryLanguagePair struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Glossary describes a glossary. Glossaries are immutable; Ready must be true
// before the glossary is used in a translation.
type Glossary struct {
	ID           string    `json:"glossary_id"`
	Ready        bool      `json:"ready"`
	Name         string    `json:"name"`
	SourceLang   string    `json:"source_lang"`
	TargetLang   string    `json:"target_lang"`
	CreationTime time.Time `json:"creation_time"`
	EntryCount   int64     `json:"entry_count"`
}

// GlossaryLanguagePairs lists the supported glossary language pairs.
func (c *Client) GlossaryLanguagePairs(ctx context.Context) ([]GlossaryLanguagePair, error) {
	var resp struct {
		SupportedLanguages []GlossaryLanguagePair `json:"supported_languages"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: "/glossary-language-pairs"}, &resp); err != nil {
		return nil, err
	}
	return resp.SupportedLanguages, nil
}

// CreateGlossary creates a glossary from an entries blob in the given format.
func (c *Client) CreateGlossary(ctx context.Context, name string, source, target lang.Language, entries string, format glossary.Format) (*Glossary, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationError("glossary name is required")
	}
	if strings.TrimSpace(entries) == "" {
		return nil, validationError("glossary entries are required")
	}

	values := url.Values{}
	values.Set("name", name)
	values.Set("source_lang", source.String())
	values.Set("target_lang", target.String())
	values.Set("entries", entries)
	values.Set("entries_format", format.String())

	var g Glossary
	if err := c.call(ctx, formRequest(http.MethodPost, "/glossaries", values), &g); err != nil {
		return nil, err
	}

	c.logger.Info().Str("glossary_id", g.ID).Int64("entries", g.EntryCount).Msg("glossary created")
	return &g, nil
}

// Glossaries lists all glossaries of the account.
func (c *Client) Glossaries(ctx context.Context) ([]Glossary, error) {
	var resp struct {
		Glossaries []Glossary `json:"glossaries"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: "/glossaries"}, &resp); err != nil {
		return nil, err
	}
	return resp.Glossaries, nil
}

// Glossary returns the metadata of one glossary, without its entries.
func (c *Client) Glossary(ctx context.Context, id string) (*Glossary, error) {
	if id == "" {
		return nil, validationError("glossary id is required")
	}
	var g Glossary
	if err := c.call(ctx, request{method: http.MethodGet, path: "/glossaries/" + url.PathEscape(id)}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GlossaryEntries fetches the entries of a glossary in TSV and decodes them.
func (c *Client) GlossaryEntries(ctx context.Context, id string) (glossary.Entries, error) {
	if id == "" {
		return nil, validationError("glossary id is required")
	}
	body, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/glossaries/" + url.PathEscape(id) + "/entries",
		accept: glossary.TSV.ContentType(),
	})
	if err != nil {
		return nil, err
	}
	return glossary.Decode(string(body), glossary.TSV), nil
}

// DeleteGlossary destroys a glossary. Failures, including transport
// failures, are returned to the caller.
func (c *Client) DeleteGlossary(ctx context.Context, id string) error {
	if id == "" {
		return validationError("glossary id is required")
	}
	if _, err := c.send(ctx, request{method: http.MethodDelete, path: "/glossaries/" + url.PathEscape(id)}); err != nil {
		return err
	}
	c.logger.Info().Str("glossary_id", id).Msg("glossary deleted")
	return nil
}
