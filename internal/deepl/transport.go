package deepl

import (
	"net/http"
	"time"
)

// Version is reported in the default User-Agent.
const Version = "0.1.0"

// DefaultUserAgent identifies this library to the service.
const DefaultUserAgent = "deepler/" + Version

// DefaultTimeout is the request timeout of the default HTTP client.
const DefaultTimeout = 30 * time.Second

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport applies the credential and identification headers to every
// request before handing it to the underlying Doer.
type Transport struct {
	doer      Doer
	authKey   string
	userAgent string
}

// NewTransport wraps doer. An empty userAgent selects DefaultUserAgent.
func NewTransport(doer Doer, authKey, userAgent string) *Transport {
	if doer == nil {
		doer = &http.Client{Timeout: DefaultTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Transport{
		doer:      doer,
		authKey:   authKey,
		userAgent: userAgent,
	}
}

func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "DeepL-Auth-Key "+t.authKey)
	req.Header.Set("User-Agent", t.userAgent)
	return t.doer.Do(req)
}

// UserAgent returns the identification string sent with every request.
func (t *Transport) UserAgent() string {
	return t.userAgent
}
