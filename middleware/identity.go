// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/campus-vote/auth"
)

type identityKey struct{}

// WithIdentity parses the bearer token, if any, into the request context.
// A request without a token passes through anonymous; a malformed,
// forged or expired token is rejected with 401.
func WithIdentity(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Authorization must be a Bearer token")
			return
		}

		id, err := auth.ParseToken(strings.TrimSpace(token), secret)
		if err != nil {
			slog.Warn("rejected bearer token", "error", err, "remote", GetClientIP(r))
			ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next(w, r.WithContext(WithIdentityContext(r.Context(), id)))
	}
}

// WithIdentityContext attaches id to ctx
func WithIdentityContext(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller attached by WithIdentity. The zero
// Identity means an anonymous request.
func IdentityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey{}).(auth.Identity)
	return id
}
