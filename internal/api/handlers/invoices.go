package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/insider-ledger/internal/api/httpx"
	"github.com/baharkarakas/insider-ledger/internal/api/validate"
	"github.com/baharkarakas/insider-ledger/internal/models"
	"github.com/baharkarakas/insider-ledger/internal/services"
)

type InvoiceHandler struct {
	invoices  *services.InvoiceService
	transfers *services.TransferService
	log       *slog.Logger
}

func NewInvoiceHandler(invoices *services.InvoiceService, transfers *services.TransferService, log *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, transfers: transfers, log: log}
}

type invoiceResp struct {
	ID                   int64                `json:"id"`
	UserID               int64                `json:"user_id"`
	TargetPaymentDetails string               `json:"target_payment_details"`
	Amount               string               `json:"amount"`
	Currency             models.Currency      `json:"currency"`
	Status               models.InvoiceStatus `json:"status"`
	VendorName           string               `json:"vendor_name"`
	Details              string               `json:"details"`
}

func toInvoiceResp(i models.Invoice) invoiceResp {
	return invoiceResp{
		ID:                   i.ID,
		UserID:               i.UserID,
		TargetPaymentDetails: i.TargetPaymentDetails,
		Amount:               models.FormatMinorUnits(i.Amount),
		Currency:             i.Currency,
		Status:               i.Status,
		VendorName:           i.VendorName,
		Details:              i.Details,
	}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var status *models.InvoiceStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := models.ParseInvoiceStatus(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
			return
		}
		status = &s
	}
	invs, err := h.invoices.ListForUser(r.Context(), uid, status)
	if err != nil {
		h.log.Error("list invoices", "user_id", uid, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not list invoices", nil)
		return
	}
	out := make([]invoiceResp, 0, len(invs))
	for _, i := range invs {
		out = append(out, toInvoiceResp(i))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type transferReq struct {
	InvoiceIDs []int64 `json:"invoice_ids"`
	AccountID  int64   `json:"account_id"`
}

type invoiceTransferResp struct {
	InvoiceID int64                `json:"invoice_id"`
	Amount    string               `json:"amount"`
	Currency  models.Currency      `json:"currency"`
	OldStatus models.InvoiceStatus `json:"old_status"`
	NewStatus models.InvoiceStatus `json:"new_status"`
	Outcome   string               `json:"outcome"`
	Message   string               `json:"message"`
}

func (h *InvoiceHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var req transferReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	idem := r.Header.Get(idempotencyHeader)
	if errs := validate.Collect(
		validate.Required(idempotencyHeader, idem),
		validate.PositiveID("account_id", req.AccountID),
		validate.NonEmptyIDs("invoice_ids", req.InvoiceIDs),
	); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", errs.Error(), errs)
		return
	}

	h.log.Info("transferring invoices", "invoice_ids", req.InvoiceIDs, "account_id", req.AccountID, "user_id", uid)

	switch res := h.transfers.TransferInvoices(r.Context(), req.InvoiceIDs, req.AccountID, uid, idem).(type) {
	case services.TransferDuplicate:
		httpx.WriteError(w, http.StatusConflict, "duplicate_idempotency_id", res.Message(), nil)
	case services.TransferFailure:
		httpx.WriteError(w, http.StatusBadRequest, "transfer_failed", res.Reason, nil)
	case services.TransferProcessed:
		out := make([]invoiceTransferResp, 0, len(res.Results))
		for _, ir := range res.Results {
			o := ir.Outcome()
			out = append(out, invoiceTransferResp{
				InvoiceID: o.Invoice.ID,
				Amount:    models.FormatMinorUnits(o.Invoice.Amount),
				Currency:  o.Invoice.Currency,
				OldStatus: o.Invoice.Status,
				NewStatus: o.NewStatus,
				Outcome:   services.OutcomeName(ir),
				Message:   o.Message,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
