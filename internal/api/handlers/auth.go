package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/insider-ledger/internal/api/httpx"
	"github.com/baharkarakas/insider-ledger/internal/auth"
)

type AuthHandler struct {
	TM     *auth.TokenManager
	AppEnv string
	log    *slog.Logger
}

func NewAuthHandler(tm *auth.TokenManager, appEnv string, log *slog.Logger) *AuthHandler {
	return &AuthHandler{TM: tm, AppEnv: appEnv, log: log}
}

type tokenReq struct {
	UserID int64 `json:"user_id"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Token mints a token pair for any user id. Credential checks live with the
// identity provider, so this is only served outside prod.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.AppEnv == "prod" {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
		return
	}
	var req tokenReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.UserID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "user_id must be a positive integer", nil)
		return
	}
	h.issue(w, req.UserID)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "refresh_token required", nil)
		return
	}
	claims, err := h.TM.ParseRefresh(req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	h.issue(w, claims.UserID)
}

func (h *AuthHandler) issue(w http.ResponseWriter, userID int64) {
	p, err := h.TM.GeneratePair(userID)
	if err != nil {
		h.log.Error("token generation", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
		ExpiresAt:    p.AccessExp.Unix(),
	})
}
