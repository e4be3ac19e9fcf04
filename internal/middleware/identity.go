package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/baharkarakas/insider-ledger/internal/api/httpx"
	"github.com/baharkarakas/insider-ledger/internal/auth"
)

const userIDHeader = "X-User-Id"

// Identity resolves the calling user from a bearer access token. Outside prod
// the X-User-Id header is accepted as well, for local testing.
type Identity struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewIdentity(tm *auth.TokenManager, appEnv string) *Identity {
	return &Identity{TM: tm, AppEnv: appEnv}
}

func (m *Identity) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ah := r.Header.Get("Authorization"); ah != "" {
			if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "malformed authorization header", nil)
				return
			}
			claims, err := m.TM.ParseAccess(strings.TrimSpace(ah[7:]))
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID)))
			return
		}

		if m.AppEnv != "prod" {
			if raw := r.Header.Get(userIDHeader); raw != "" {
				uid, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || uid <= 0 {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "X-User-Id must be a positive integer", nil)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uid)))
				return
			}
		}
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
	})
}
