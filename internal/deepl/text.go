package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Translation is the result for one input text.
type Translation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

type translateResponse struct {
	Translations []Translation `json:"translations"`
}

// Translate translates texts in one request. Results are in input order.
//
// An empty texts list, or an empty first text, fails with ErrValidation
// without contacting the service.
func (c *Client) Translate(ctx context.Context, opts *TextOptions, texts ...string) ([]Translation, error) {
	if opts == nil {
		return nil, validationError("text options are required")
	}
	if !opts.TargetLang().Valid() {
		return nil, validationError("target language is required")
	}
	if len(texts) == 0 {
		return nil, validationError("no text to translate")
	}
	if texts[0] == "" {
		return nil, validationError("text to translate is empty")
	}

	var req request
	if c.json {
		payload, err := json.Marshal(opts.payload(texts))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req = jsonRequest(http.MethodPost, "/translate", payload)
	} else {
		values := toValues(opts.Params())
		for _, t := range texts {
			values.Add("text", t)
		}
		req = formRequest(http.MethodPost, "/translate", values)
	}

	var resp translateResponse
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Translations) != len(texts) {
		return nil, &Error{
			Kind: KindDeserialize,
			Err:  fmt.Errorf("expected %d translations, got %d", len(texts), len(resp.Translations)),
		}
	}

	c.logger.Debug().Int("texts", len(texts)).Str("target_lang", opts.TargetLang().String()).Msg("text translated")
	return resp.Translations, nil
}
