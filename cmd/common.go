/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/valpere/deepler/internal/chunker"
	"github.com/valpere/deepler/internal/deepl"
	"github.com/valpere/deepler/internal/lang"
	"github.com/valpere/deepler/internal/poller"
	"github.com/valpere/deepler/internal/store"
)

// newClient builds an API client from the loaded configuration.
func newClient() (*deepl.Client, error) {
	if err := cfg.RequireAuthKey(); err != nil {
		return nil, err
	}
	return deepl.New(cfg.AuthKey,
		deepl.WithBaseURL(cfg.ServerURL),
		deepl.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		deepl.WithUserAgent(cfg.UserAgent),
		deepl.WithJSONBodies(cfg.JSONBodies),
		deepl.WithLogger(logger),
	), nil
}

func openStore() (*store.Store, error) {
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func waiterOptions() []poller.WaiterOption {
	return []poller.WaiterOption{
		poller.WithBackoff(poller.Backoff{
			Initial: cfg.Poll.Initial,
			Max:     cfg.Poll.Max,
			Factor:  cfg.Poll.Factor,
		}),
		poller.WithLogger(logger),
	}
}

// parseTarget resolves a target language code, rejecting source-only codes.
func parseTarget(code string) (lang.Language, error) {
	if strings.TrimSpace(code) == "" {
		return 0, fmt.Errorf("--target language is required")
	}
	l, err := lang.Parse(code)
	if err != nil {
		return 0, err
	}
	if !l.CanTarget() {
		return 0, fmt.Errorf("%s cannot be used as a target language", l)
	}
	return l, nil
}

// parseSource resolves an optional source language code. ok is false when
// code is empty or "auto", leaving detection to the service.
func parseSource(code string) (l lang.Language, ok bool, err error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "auto") {
		return 0, false, nil
	}
	l, err = lang.Parse(code)
	if err != nil {
		return 0, false, err
	}
	if !l.CanSource() {
		return 0, false, fmt.Errorf("%s cannot be used as a source language", l)
	}
	return l, true, nil
}

// translateAll sends texts in as many requests as the service limits require
// and returns the results in input order.
func translateAll(ctx context.Context, client *deepl.Client, opts *deepl.TextOptions, texts []string) ([]deepl.Translation, error) {
	out := make([]deepl.Translation, 0, len(texts))
	for _, batch := range chunker.Batch(texts, 0, 0) {
		res, err := client.Translate(ctx, opts, batch...)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// describeError adds a hint for the failures users can act on.
func describeError(err error) error {
	var apiErr *deepl.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusForbidden:
		return fmt.Errorf("%w (check DEEPL_AUTH_KEY and the server URL)", err)
	case 456:
		return fmt.Errorf("%w (character quota exceeded, see 'deepler usage')", err)
	}
	return err
}
