package deepl

import (
	"context"
	"net/http"
)

// Usage reports character consumption in the current billing period.
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

// Usage returns the account's usage and limits.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var u Usage
	if err := c.call(ctx, request{method: http.MethodGet, path: "/usage"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
