package handlers

import (
	"net/http"

	"github.com/baharkarakas/insider-ledger/internal/api/httpx"
	"github.com/baharkarakas/insider-ledger/internal/middleware"
)

const idempotencyHeader = "X-Idempotency-Id"

func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := middleware.UserFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity", nil)
	}
	return uid, ok
}
