package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/api/httpx"
	"github.com/baharkarakas/insider-ledger/internal/api/validate"
	"github.com/baharkarakas/insider-ledger/internal/models"
	"github.com/baharkarakas/insider-ledger/internal/services"
)

type AccountHandler struct {
	svc *services.AccountService
	log *slog.Logger
}

func NewAccountHandler(svc *services.AccountService, log *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

type accountResp struct {
	ID       int64               `json:"id"`
	UserID   int64               `json:"user_id"`
	Type     models.AccountType  `json:"type"`
	Balance  string              `json:"balance"`
	Currency models.Currency     `json:"currency"`
	State    models.AccountState `json:"state"`
}

func toAccountResp(a models.Account) accountResp {
	return accountResp{
		ID:       a.ID,
		UserID:   a.UserID,
		Type:     a.Type,
		Balance:  models.FormatMinorUnits(a.Balance),
		Currency: a.Currency,
		State:    a.State,
	}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	h.log.Info("fetching accounts", "user_id", uid)
	accs, err := h.svc.ListForUser(r.Context(), uid)
	if err != nil {
		h.log.Error("list accounts", "user_id", uid, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not list accounts", nil)
		return
	}
	out := make([]accountResp, 0, len(accs))
	for _, a := range accs {
		out = append(out, toAccountResp(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type topUpReq struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type topUpResp struct {
	NewBalance string          `json:"new_balance"`
	Currency   models.Currency `json:"currency"`
}

func (h *AccountHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid account id", nil)
		return
	}
	var req topUpReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	idem := r.Header.Get(idempotencyHeader)
	if errs := validate.Collect(
		validate.Required(idempotencyHeader, idem),
		validate.Required("currency", req.Currency),
	); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", errs.Error(), errs)
		return
	}
	currency, err := models.ParseCurrency(req.Currency)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	h.log.Info("top-up requested",
		"account_id", accountID, "user_id", uid,
		"amount", req.Amount.String(), "currency", currency, "idempotency_id", idem)

	switch res := h.svc.TopUp(r.Context(), accountID, uid, req.Amount, currency, idem).(type) {
	case services.TopUpSuccess:
		httpx.WriteJSON(w, http.StatusOK, topUpResp{NewBalance: res.NewBalance.StringFixed(2), Currency: res.Currency})
	case services.TopUpFailure:
		httpx.WriteError(w, http.StatusBadRequest, "top_up_failed", res.Reason, nil)
	}
}
