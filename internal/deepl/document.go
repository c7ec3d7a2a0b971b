package deepl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// Document is the handle returned by an upload. Key decrypts the document on
// the service and must accompany every later call; it is never logged or
// printed by this package.
type Document struct {
	ID  string `json:"document_id"`
	Key string `json:"document_key"`
}

// String hides the key so a Document can be formatted safely.
func (d Document) String() string {
	return d.ID
}

// GoString hides the key from %#v as well.
func (d Document) GoString() string {
	return fmt.Sprintf("deepl.Document{ID: %q}", d.ID)
}

// DocumentState is the server-side state of a document translation.
type DocumentState string

const (
	StateQueued      DocumentState = "queued"
	StateTranslating DocumentState = "translating"
	StateDone        DocumentState = "done"
	StateError       DocumentState = "error"
)

// IsDone reports whether the document is ready for download.
func (s DocumentState) IsDone() bool {
	return s == StateDone
}

// IsTerminal reports whether no further transitions will happen.
func (s DocumentState) IsTerminal() bool {
	return s == StateDone || s == StateError
}

func (s *DocumentState) UnmarshalText(text []byte) error {
	switch st := DocumentState(text); st {
	case StateQueued, StateTranslating, StateDone, StateError:
		*s = st
		return nil
	}
	return fmt.Errorf("unknown document state %q", string(text))
}

// DocumentStatus is a snapshot of a document translation.
// SecondsRemaining is only set while translating; ErrorMessage only on error.
type DocumentStatus struct {
	ID               string        `json:"document_id"`
	State            DocumentState `json:"status"`
	SecondsRemaining *int64        `json:"seconds_remaining,omitempty"`
	BilledCharacters *int64        `json:"billed_characters,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}

// UploadDocument sends the file named by opts for translation. The file is
// read before any request is made; a missing or unreadable file fails with
// ErrValidation.
func (c *Client) UploadDocument(ctx context.Context, opts *DocumentOptions) (*Document, error) {
	if opts == nil {
		return nil, validationError("document options are required")
	}
	if !opts.TargetLang().Valid() {
		return nil, validationError("target language is required")
	}

	body, contentType, err := multipartBody(opts)
	if err != nil {
		return nil, err
	}

	var doc Document
	err = c.call(ctx, request{
		method:      http.MethodPost,
		path:        "/document",
		body:        body,
		contentType: contentType,
	}, &doc)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" || doc.Key == "" {
		return nil, &Error{Kind: KindDeserialize, Err: fmt.Errorf("upload response is missing the document handle")}
	}

	c.logger.Info().Str("document_id", doc.ID).Str("file", filepath.Base(opts.FilePath())).Msg("document uploaded")
	return &doc, nil
}

func multipartBody(opts *DocumentOptions) (*bytes.Buffer, string, error) {
	f, err := os.Open(opts.FilePath())
	if err != nil {
		return nil, "", &Error{Kind: KindValidation, Message: "failed to attach file", Err: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range opts.Params() {
		if err := w.WriteField(p.Key, p.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", p.Key, err)
		}
	}

	name := opts.filename
	if name == "" {
		name = filepath.Base(opts.FilePath())
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", &Error{Kind: KindValidation, Message: "failed to attach file", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func checkDocument(doc Document) error {
	if doc.ID == "" {
		return validationError("document id is required")
	}
	if doc.Key == "" {
		return validationError("document key is required")
	}
	return nil
}

// DocumentStatus queries the current state of doc. It does not wait; see
// package poller for a polling loop.
func (c *Client) DocumentStatus(ctx context.Context, doc Document) (*DocumentStatus, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	var status DocumentStatus
	values := url.Values{"document_key": {doc.Key}}
	if err := c.call(ctx, formRequest(http.MethodPost, "/document/"+url.PathEscape(doc.ID), values), &status); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("document_id", doc.ID).Str("state", string(status.State)).Msg("document status")
	return &status, nil
}

// DownloadDocument fetches the translated document and writes it to outPath,
// or to a file in the working directory named after the document id when
// outPath is empty. It returns
// the written path. The body is held in memory before it is written.
//
// Calling it before the status is done is not rejected locally; the service's
// answer is returned as an error.
func (c *Client) DownloadDocument(ctx context.Context, doc Document, outPath string) (string, error) {
	if err := checkDocument(doc); err != nil {
		return "", err
	}
	if outPath == "" {
		outPath = filepath.Base(doc.ID)
		if outPath == "." || outPath == ".." || outPath == string(filepath.Separator) {
			return "", validationError("document id %q cannot name an output file", doc.ID)
		}
	}

	values := url.Values{"document_key": {doc.Key}}
	body, err := c.send(ctx, formRequest(http.MethodPost, "/document/"+url.PathEscape(doc.ID)+"/result", values))
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write translated document: %w", err)
	}

	c.logger.Info().Str("document_id", doc.ID).Str("path", outPath).Int("bytes", len(body)).Msg("document downloaded")
	return outPath, nil
}
