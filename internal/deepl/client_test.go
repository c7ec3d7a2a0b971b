package deepl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/valpere/deepler/internal/glossary"
	"github.com/valpere/deepler/internal/lang"
)

type countingDoer struct {
	calls int
	doer  Doer
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	return d.doer.Do(req)
}

type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestDefaultBaseURL(t *testing.T) {
	if got := DefaultBaseURL("abc:fx"); got != FreeBaseURL {
		t.Errorf("expected free endpoint, got %q", got)
	}
	if got := DefaultBaseURL("abc"); got != ProBaseURL {
		t.Errorf("expected pro endpoint, got %q", got)
	}
	if got := New("abc", WithBaseURL("http://localhost:9999/v2/")).BaseURL(); got != "http://localhost:9999/v2" {
		t.Errorf("expected trimmed base URL, got %q", got)
	}
}

func TestTransport_Headers(t *testing.T) {
	svc := newFakeService(t)

	if _, err := svc.client().Usage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.client(WithUserAgent("my-app/2.0")).Usage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{DefaultUserAgent, "my-app/2.0"}
	if !reflect.DeepEqual(svc.userAgents, want) {
		t.Errorf("expected user agents %v, got %v", want, svc.userAgents)
	}
}

func TestClient_WrongKey(t *testing.T) {
	svc := newFakeService(t)
	c := New("wrong-key", WithBaseURL(svc.server.URL+"/v2"), WithHTTPClient(svc.server.Client()))

	_, err := c.Usage(context.Background())
	if !errors.Is(err, ErrClient) {
		t.Fatalf("expected client error, got %v", err)
	}
	if strings.Contains(err.Error(), "wrong-key") {
		t.Errorf("error leaks the auth key: %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	c := New(testAuthKey, WithBaseURL("http://deepl.invalid/v2"), WithHTTPClient(failingDoer{}))

	_, err := c.Usage(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}
}

func TestClient_Usage(t *testing.T) {
	svc := newFakeService(t)

	u, err := svc.client().Usage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.CharacterCount != 1234 || u.CharacterLimit != 500000 {
		t.Errorf("unexpected usage %+v", u)
	}
}

func TestClient_Translate(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client()

	got, err := c.Translate(context.Background(), NewTextOptions(lang.DE).SetFormality(FormalityMore), "good morning", "hello", "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Guten Morgen", "hallo", "[DE] cat"}
	if len(got) != len(want) {
		t.Fatalf("expected %d translations, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("translation %d: expected %q, got %q", i, want[i], got[i].Text)
		}
		if got[i].DetectedSourceLanguage != "EN" {
			t.Errorf("translation %d: expected detected EN, got %q", i, got[i].DetectedSourceLanguage)
		}
	}

	if f := svc.lastForm["formality"]; !reflect.DeepEqual(f, []string{"more"}) {
		t.Errorf("expected formality=more in form, got %v", f)
	}
	if _, ok := svc.lastForm["preserve_formatting"]; ok {
		t.Error("unset preserve_formatting was sent")
	}
}

func TestClient_Translate_JSON(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client(WithJSONBodies(true))

	got, err := c.Translate(context.Background(), NewTextOptions(lang.IT).SetIgnoreTags("code"), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Text != "ciao" {
		t.Errorf("expected 'ciao', got %q", got[0].Text)
	}
	if tags, ok := svc.lastJSON["ignore_tags"].([]any); !ok || len(tags) != 1 || tags[0] != "code" {
		t.Errorf("expected ignore_tags array, got %v", svc.lastJSON["ignore_tags"])
	}
}

func TestClient_Translate_LocalValidation(t *testing.T) {
	svc := newFakeService(t)
	doer := &countingDoer{doer: svc.server.Client()}
	c := New(testAuthKey, WithBaseURL(svc.server.URL+"/v2"), WithHTTPClient(doer))

	cases := map[string][]string{
		"no texts":    nil,
		"empty first": {"", "hello"},
	}
	for name, texts := range cases {
		_, err := c.Translate(context.Background(), NewTextOptions(lang.DE), texts...)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	if _, err := c.Translate(context.Background(), nil, "hello"); !errors.Is(err, ErrValidation) {
		t.Errorf("nil options: expected validation error, got %v", err)
	}
	var unset lang.Language
	if _, err := c.Translate(context.Background(), NewTextOptions(unset), "hello"); !errors.Is(err, ErrValidation) {
		t.Errorf("unset target: expected validation error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.UploadDocument(context.Background(), NewDocumentOptions(unset, path)); !errors.Is(err, ErrValidation) {
		t.Errorf("unset document target: expected validation error, got %v", err)
	}

	if doer.calls != 0 {
		t.Errorf("expected no network calls, got %d", doer.calls)
	}
}

func TestClient_Translate_InvalidPair(t *testing.T) {
	svc := newFakeService(t)

	_, err := svc.client().Translate(context.Background(), NewTextOptions(lang.DE).SetSourceLang(lang.ENUS), "hello")
	if !errors.Is(err, ErrClient) {
		t.Fatalf("expected client error, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %v", err)
	}
	if !strings.Contains(e.Message, "source_lang") {
		t.Errorf("expected server message, got %q", e.Message)
	}
}

func TestClient_Translate_CountMismatch(t *testing.T) {
	server := newStaticServer(t, http.StatusOK, `{"translations":[]}`)
	c := New(testAuthKey, WithBaseURL(server), WithHTTPClient(http.DefaultClient))

	_, err := c.Translate(context.Background(), NewTextOptions(lang.DE), "hello")
	if !errors.Is(err, ErrDeserialize) {
		t.Fatalf("expected deserialize error, got %v", err)
	}
}

func TestClient_Document_EndToEnd(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client()
	dir := t.TempDir()

	input := filepath.Join(dir, "greeting.txt")
	if err := os.WriteFile(input, []byte("good morning"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := c.UploadDocument(context.Background(), NewDocumentOptions(lang.DE, input))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if doc.ID == "" || doc.Key == "" {
		t.Fatalf("expected document handle, got %#v", doc)
	}

	var status *DocumentStatus
	var seen []DocumentState
	for i := 0; i < 10; i++ {
		status, err = c.DocumentStatus(context.Background(), *doc)
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		seen = append(seen, status.State)
		if status.State.IsTerminal() {
			break
		}
		if status.State == StateTranslating && status.SecondsRemaining == nil {
			t.Error("expected seconds_remaining while translating")
		}
	}
	if !status.State.IsDone() {
		t.Fatalf("expected done, got states %v", seen)
	}
	if seen[0] != StateQueued {
		t.Errorf("expected first state queued, got %v", seen[0])
	}

	again, err := c.DocumentStatus(context.Background(), *doc)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if again.State != StateDone {
		t.Errorf("terminal state must be stable, got %v", again.State)
	}

	out := filepath.Join(dir, "out", "greeting.de.txt")
	path, err := c.DownloadDocument(context.Background(), *doc, out)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "Guten Morgen" {
		t.Errorf("expected 'Guten Morgen', got %q", content)
	}
}

func TestClient_Download_BeforeDone(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client()

	input := filepath.Join(t.TempDir(), "a.txt")
	os.WriteFile(input, []byte("hello"), 0644)

	doc, err := c.UploadDocument(context.Background(), NewDocumentOptions(lang.DE, input))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "a.de.txt")
	_, err = c.DownloadDocument(context.Background(), *doc, out)
	if !errors.Is(err, ErrClient) {
		t.Fatalf("expected client error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no file should be written for a failed download")
	}
}

func TestClient_Download_DefaultPath(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client()
	dir := t.TempDir()

	input := filepath.Join(dir, "a.txt")
	os.WriteFile(input, []byte("hello"), 0644)
	doc, err := c.UploadDocument(context.Background(), NewDocumentOptions(lang.IT, input))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	for i := 0; i <= pollsUntilDone; i++ {
		if _, err := c.DocumentStatus(context.Background(), *doc); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	}

	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	path, err := c.DownloadDocument(context.Background(), *doc, "")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if path != doc.ID {
		t.Errorf("expected path %q, got %q", doc.ID, path)
	}
	content, _ := os.ReadFile(filepath.Join(dir, doc.ID))
	if string(content) != "ciao" {
		t.Errorf("expected 'ciao', got %q", content)
	}
}

func TestClient_Download_DefaultPathStaysInWorkingDir(t *testing.T) {
	c := New(testAuthKey, WithBaseURL(newStaticServer(t, http.StatusOK, "payload")))
	root := t.TempDir()
	work := filepath.Join(root, "work")
	if err := os.Mkdir(work, 0755); err != nil {
		t.Fatal(err)
	}

	wd, _ := os.Getwd()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	path, err := c.DownloadDocument(context.Background(), Document{ID: "../escaped", Key: "k"}, "")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if path != "escaped" {
		t.Errorf("expected path 'escaped', got %q", path)
	}
	if _, err := os.Stat(filepath.Join(root, "escaped")); !os.IsNotExist(err) {
		t.Errorf("expected nothing written outside the working directory, got %v", err)
	}
	if content, _ := os.ReadFile(filepath.Join(work, "escaped")); string(content) != "payload" {
		t.Errorf("expected 'payload', got %q", content)
	}

	if _, err := c.DownloadDocument(context.Background(), Document{ID: "..", Key: "k"}, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for '..', got %v", err)
	}
}

func TestClient_Upload_MissingFile(t *testing.T) {
	svc := newFakeService(t)
	doer := &countingDoer{doer: svc.server.Client()}
	c := New(testAuthKey, WithBaseURL(svc.server.URL+"/v2"), WithHTTPClient(doer))

	_, err := c.UploadDocument(context.Background(), NewDocumentOptions(lang.DE, filepath.Join(t.TempDir(), "missing.txt")))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}

	_, err = c.UploadDocument(context.Background(), NewDocumentOptions(lang.DE, t.TempDir()))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for a directory, got %v", err)
	}

	if doer.calls != 0 {
		t.Errorf("expected no network calls, got %d", doer.calls)
	}
}

func TestClient_DocumentStatus_Validation(t *testing.T) {
	c := New(testAuthKey, WithHTTPClient(failingDoer{}))

	if _, err := c.DocumentStatus(context.Background(), Document{ID: "doc-1"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for missing key, got %v", err)
	}
	if _, err := c.DownloadDocument(context.Background(), Document{Key: "k"}, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for missing id, got %v", err)
	}
}

func TestDocument_FormattingHidesKey(t *testing.T) {
	doc := Document{ID: "doc-1", Key: "secret-key"}
	for _, s := range []string{fmt.Sprint(doc), fmt.Sprintf("%v", doc), fmt.Sprintf("%+v", doc), fmt.Sprintf("%#v", doc), fmt.Sprintf("%s", &doc)} {
		if strings.Contains(s, "secret-key") {
			t.Errorf("formatted document leaks key: %q", s)
		}
	}
}

func TestDocumentState_Decode(t *testing.T) {
	server := newStaticServer(t, http.StatusOK, `{"document_id":"d","status":"exploded"}`)
	c := New(testAuthKey, WithBaseURL(server), WithHTTPClient(http.DefaultClient))

	_, err := c.DocumentStatus(context.Background(), Document{ID: "d", Key: "k"})
	if !errors.Is(err, ErrDeserialize) {
		t.Fatalf("expected deserialize error for unknown state, got %v", err)
	}
}

func TestClient_Glossary_EndToEnd(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client()
	ctx := context.Background()

	g, err := c.CreateGlossary(ctx, "greetings", lang.EN, lang.IT, "hello,ciao", glossary.CSV)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if g.EntryCount != 1 {
		t.Errorf("expected entry_count 1, got %d", g.EntryCount)
	}
	if !g.Ready {
		t.Error("expected glossary to be ready")
	}
	if g.CreationTime.IsZero() {
		t.Error("expected creation time")
	}

	entries, err := c.GlossaryEntries(ctx, g.ID)
	if err != nil {
		t.Fatalf("entries failed: %v", err)
	}
	if !reflect.DeepEqual(entries, glossary.Entries{"hello": "ciao"}) {
		t.Errorf("expected {hello: ciao}, got %v", entries)
	}

	list, err := c.Glossaries(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != g.ID {
		t.Errorf("expected [%s], got %+v", g.ID, list)
	}

	info, err := c.Glossary(ctx, g.ID)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.Name != "greetings" {
		t.Errorf("expected name 'greetings', got %q", info.Name)
	}

	if err := c.DeleteGlossary(ctx, g.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = c.Glossary(ctx, g.ID)
	if !errors.Is(err, ErrClient) || !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if err := c.DeleteGlossary(ctx, g.ID); !IsNotFound(err) {
		t.Errorf("expected not found for a second delete, got %v", err)
	}
}

func TestClient_DeleteGlossary_TransportError(t *testing.T) {
	c := New(testAuthKey, WithBaseURL("http://deepl.invalid/v2"), WithHTTPClient(failingDoer{}))

	if err := c.DeleteGlossary(context.Background(), "gls-1"); !errors.Is(err, ErrTransport) {
		t.Errorf("expected transport error to be surfaced, got %v", err)
	}
}

func TestClient_CreateGlossary_Validation(t *testing.T) {
	c := New(testAuthKey, WithHTTPClient(failingDoer{}))

	if _, err := c.CreateGlossary(context.Background(), "", lang.EN, lang.DE, "a\tb", glossary.TSV); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
	if _, err := c.CreateGlossary(context.Background(), "n", lang.EN, lang.DE, " ", glossary.TSV); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for empty entries, got %v", err)
	}
}

func TestClient_GlossaryLanguagePairs(t *testing.T) {
	svc := newFakeService(t)

	pairs, err := svc.client().GlossaryLanguagePairs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 || pairs[0].SourceLang != "en" {
		t.Errorf("unexpected pairs %+v", pairs)
	}
}

func TestClient_Languages(t *testing.T) {
	svc := newFakeService(t)
	c := svc.client()

	targets, err := c.Languages(context.Background(), LanguageTarget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 || !targets[0].SupportsFormality || targets[1].Code != "EN-US" {
		t.Errorf("unexpected target languages %+v", targets)
	}

	if _, err := c.Languages(context.Background(), "both"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for bad type, got %v", err)
	}
}

func newStaticServer(t *testing.T, status int, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}
