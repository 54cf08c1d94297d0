package http

import (
	"net/http"
	"strings"
)

// Authenticator resolves a request to an owner id. Token issuance lives
// outside this service; the API only needs to know who a request belongs to.
type Authenticator interface {
	// Authenticate returns the owner for the request, or false when the
	// request carries no valid credential.
	Authenticate(r *http.Request) (int64, bool)
}

// StaticTokens authenticates bearer tokens against a fixed token-to-owner
// map, the shape produced by config.ParseAuthTokens.
type StaticTokens struct {
	tokens map[string]int64
}

func NewStaticTokens(tokens map[string]int64) *StaticTokens {
	return &StaticTokens{tokens: tokens}
}

func (a *StaticTokens) Authenticate(r *http.Request) (int64, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return 0, false
	}
	owner, ok := a.tokens[token]
	return owner, ok
}
