package deepl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxExcerpt bounds how much of an unparseable body is kept in an error.
const maxExcerpt = 256

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// classify maps a completed response to nil (2xx) or a typed *Error.
// A structured error body is tried on every non-success status before the
// response is declared invalid.
func classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	trimmed := bytes.TrimSpace(body)
	var eb errorBody
	structured := len(trimmed) > 0 && json.Unmarshal(trimmed, &eb) == nil && strings.TrimSpace(eb.Message) != ""

	msg := http.StatusText(status)
	if structured {
		msg = strings.TrimSpace(eb.Message)
		if detail := strings.TrimSpace(eb.Detail); detail != "" {
			msg += ": " + detail
		}
	}

	switch {
	case status >= 400 && status < 500:
		return &Error{Kind: KindClient, StatusCode: status, Message: msg}
	case structured, len(trimmed) == 0:
		return &Error{Kind: KindServer, StatusCode: status, Message: msg}
	default:
		return &Error{Kind: KindInvalidResponse, StatusCode: status, Message: excerpt(trimmed)}
	}
}

// decode parses a success body into v.
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Kind: KindDeserialize, Err: err}
	}
	return nil
}

func excerpt(body []byte) string {
	s := string(body)
	if len(s) > maxExcerpt {
		cut := maxExcerpt
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
