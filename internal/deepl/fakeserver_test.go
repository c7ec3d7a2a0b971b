package deepl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/deepler/internal/glossary"
	"github.com/valpere/deepler/internal/lang"
)

const testAuthKey = "test-key:fx"

var dictionary = map[string]map[string]string{
	"DE": {"good morning": "Guten Morgen", "hello": "hallo"},
	"IT": {"hello": "ciao"},
}

type fakeDocument struct {
	key        string
	content    string
	targetLang string
	polls      int
}

// fakeService emulates the v2 API closely enough for client tests.
type fakeService struct {
	t        *testing.T
	server   *httptest.Server
	requests atomic.Int32

	mu         sync.Mutex
	documents  map[string]*fakeDocument
	glossaries map[string]*fakeGlossary
	nextID     int
	userAgents []string
	lastForm   map[string][]string
	lastJSON   map[string]any
}

type fakeGlossary struct {
	meta    Glossary
	entries glossary.Entries
}

// pollsUntilDone is the number of status calls before a document is done.
const pollsUntilDone = 3

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{
		t:          t,
		documents:  make(map[string]*fakeDocument),
		glossaries: make(map[string]*fakeGlossary),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/translate", f.translate)
	mux.HandleFunc("POST /v2/document", f.upload)
	mux.HandleFunc("POST /v2/document/{id}", f.status)
	mux.HandleFunc("POST /v2/document/{id}/result", f.result)
	mux.HandleFunc("POST /v2/glossaries", f.createGlossary)
	mux.HandleFunc("GET /v2/glossaries", f.listGlossaries)
	mux.HandleFunc("GET /v2/glossaries/{id}", f.glossaryInfo)
	mux.HandleFunc("GET /v2/glossaries/{id}/entries", f.glossaryEntries)
	mux.HandleFunc("DELETE /v2/glossaries/{id}", f.deleteGlossary)
	mux.HandleFunc("GET /v2/glossary-language-pairs", f.languagePairs)
	mux.HandleFunc("GET /v2/languages", f.languages)
	mux.HandleFunc("GET /v2/usage", f.usage)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mu.Lock()
		f.userAgents = append(f.userAgents, r.UserAgent())
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "DeepL-Auth-Key "+testAuthKey {
			writeError(w, http.StatusForbidden, "Wrong authentication key")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) client(opts ...Option) *Client {
	opts = append([]Option{WithBaseURL(f.server.URL + "/v2"), WithHTTPClient(f.server.Client())}, opts...)
	return New(testAuthKey, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func translateText(text, target string) string {
	if t, ok := dictionary[lang.Normalize(target)][strings.ToLower(text)]; ok {
		return t
	}
	return fmt.Sprintf("[%s] %s", target, text)
}

func checkPair(source, target string) string {
	if target == "" {
		return "Parameter 'target_lang' not specified."
	}
	tl, err := lang.Parse(target)
	if err != nil || !tl.CanTarget() {
		return "Value for 'target_lang' not supported."
	}
	if source != "" {
		sl, err := lang.Parse(source)
		if err != nil || !sl.CanSource() {
			return "Value for 'source_lang' not supported."
		}
	}
	return ""
}

func (f *fakeService) translate(w http.ResponseWriter, r *http.Request) {
	var texts []string
	var source, target string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		f.mu.Lock()
		f.lastJSON = body
		f.mu.Unlock()
		if raw, ok := body["text"].([]any); ok {
			for _, t := range raw {
				texts = append(texts, fmt.Sprint(t))
			}
		}
		source, _ = body["source_lang"].(string)
		target, _ = body["target_lang"].(string)
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form")
			return
		}
		f.mu.Lock()
		f.lastForm = r.PostForm
		f.mu.Unlock()
		texts = r.PostForm["text"]
		source = r.PostForm.Get("source_lang")
		target = r.PostForm.Get("target_lang")
	}

	if msg := checkPair(source, target); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	detected := source
	if detected == "" {
		detected = "EN"
	}
	out := make([]Translation, 0, len(texts))
	for _, t := range texts {
		out = append(out, Translation{DetectedSourceLanguage: detected, Text: translateText(t, target)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"translations": out})
}

func (f *fakeService) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	target := r.FormValue("target_lang")
	if msg := checkPair(r.FormValue("source_lang"), target); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Parameter 'file' not specified.")
		return
	}
	defer file.Close()
	content, _ := io.ReadAll(file)

	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	key := fmt.Sprintf("key-%d", f.nextID)
	f.documents[id] = &fakeDocument{key: key, content: string(content), targetLang: target}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, Document{ID: id, Key: key})
}

func (f *fakeService) document(w http.ResponseWriter, r *http.Request) *fakeDocument {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return nil
	}
	doc, ok := f.documents[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Document not found")
		return nil
	}
	if r.PostForm.Get("document_key") != doc.key {
		writeError(w, http.StatusForbidden, "Invalid document key")
		return nil
	}
	return doc
}

func (d *fakeDocument) state() DocumentState {
	switch {
	case d.polls == 0:
		return StateQueued
	case d.polls < pollsUntilDone:
		return StateTranslating
	case strings.TrimSpace(d.content) == "fail":
		return StateError
	default:
		return StateDone
	}
}

func (f *fakeService) status(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.document(w, r)
	if doc == nil {
		return
	}
	state := doc.state()
	doc.polls++

	status := DocumentStatus{ID: r.PathValue("id"), State: state}
	switch state {
	case StateTranslating:
		remaining := int64(pollsUntilDone - doc.polls)
		status.SecondsRemaining = &remaining
	case StateDone:
		billed := int64(len(doc.content))
		status.BilledCharacters = &billed
	case StateError:
		status.ErrorMessage = "Source file is corrupted"
	}
	writeJSON(w, http.StatusOK, status)
}

func (f *fakeService) result(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.document(w, r)
	if doc == nil {
		return
	}
	if doc.state() != StateDone {
		writeError(w, http.StatusBadRequest, "Document is not ready")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, translateText(strings.TrimSpace(doc.content), doc.targetLang))
}

func (f *fakeService) createGlossary(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	format, err := glossary.ParseFormat(r.PostForm.Get("entries_format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported entries format")
		return
	}
	entries := glossary.Decode(r.PostForm.Get("entries"), format)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g := &fakeGlossary{
		meta: Glossary{
			ID:           fmt.Sprintf("gls-%d", f.nextID),
			Ready:        true,
			Name:         r.PostForm.Get("name"),
			SourceLang:   strings.ToLower(r.PostForm.Get("source_lang")),
			TargetLang:   strings.ToLower(r.PostForm.Get("target_lang")),
			CreationTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			EntryCount:   int64(len(entries)),
		},
		entries: entries,
	}
	f.glossaries[g.meta.ID] = g
	writeJSON(w, http.StatusCreated, g.meta)
}

func (f *fakeService) listGlossaries(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]Glossary, 0, len(f.glossaries))
	for _, g := range f.glossaries {
		list = append(list, g.meta)
	}
	writeJSON(w, http.StatusOK, map[string]any{"glossaries": list})
}

func (f *fakeService) lookupGlossary(w http.ResponseWriter, r *http.Request) *fakeGlossary {
	g, ok := f.glossaries[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Glossary not found")
		return nil
	}
	return g
}

func (f *fakeService) glossaryInfo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g := f.lookupGlossary(w, r); g != nil {
		writeJSON(w, http.StatusOK, g.meta)
	}
}

func (f *fakeService) glossaryEntries(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.lookupGlossary(w, r)
	if g == nil {
		return
	}
	if r.Header.Get("Accept") != "text/tab-separated-values" {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported Accept header")
		return
	}
	blob, err := glossary.Encode(g.entries, glossary.TSV)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values")
	io.WriteString(w, blob+"\n")
}

func (f *fakeService) deleteGlossary(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g := f.lookupGlossary(w, r); g != nil {
		delete(f.glossaries, g.meta.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeService) languagePairs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"supported_languages": []GlossaryLanguagePair{
			{SourceLang: "en", TargetLang: "de"},
			{SourceLang: "en", TargetLang: "it"},
		},
	})
}

func (f *fakeService) languages(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("type") {
	case "target":
		writeJSON(w, http.StatusOK, []LanguageInfo{
			{Code: "DE", Name: "German", SupportsFormality: true},
			{Code: "EN-US", Name: "English (American)"},
		})
	default:
		writeJSON(w, http.StatusOK, []LanguageInfo{
			{Code: "DE", Name: "German"},
			{Code: "EN", Name: "English"},
		})
	}
}

func (f *fakeService) usage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Usage{CharacterCount: 1234, CharacterLimit: 500000})
}
