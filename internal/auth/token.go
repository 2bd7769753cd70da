package auth

import (
	"net/http"
	"strings"
)

// TokenFromRequest extracts a GitHub token from the Authorization header.
// Both "Bearer <token>" and "token <token>" schemes are accepted; a missing
// or malformed header yields fallback (the server-configured token, possibly
// empty for unauthenticated access).
func TokenFromRequest(r *http.Request, fallback string) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return fallback
	}
	scheme, value, ok := strings.Cut(header, " ")
	if !ok {
		return fallback
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		if t := strings.TrimSpace(value); t != "" {
			return t
		}
	}
	return fallback
}
