// Package httpapi exposes the ledger over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/backup"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/calculator"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/config"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/rates"
)

type Handler struct {
	ledger    *ledger.Ledger
	logger    logrus.FieldLogger
	backupDir string
	now       func() time.Time
}

func NewHandler(l *ledger.Ledger, logger logrus.FieldLogger, backupDir string) *Handler {
	return &Handler{ledger: l, logger: logger, backupDir: backupDir, now: time.Now}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /customers", h.listCustomers)
	mux.HandleFunc("POST /customers", h.addCustomer)
	mux.HandleFunc("GET /customers/{id}", h.customerDetails)
	mux.HandleFunc("DELETE /customers/{id}", h.deleteCustomer)
	mux.HandleFunc("POST /customers/{id}/debts", h.addMonetary(false))
	mux.HandleFunc("POST /customers/{id}/payments", h.addMonetary(true))
	mux.HandleFunc("POST /customers/{id}/boxes", h.addBoxes)
	mux.HandleFunc("POST /customers/{id}/boxes/{debtId}/payments", h.payBoxes)
	mux.HandleFunc("DELETE /customers/{id}/transactions/{txId}", h.deleteTransaction)

	mux.HandleFunc("GET /exchange-rates", h.getRates)
	mux.HandleFunc("PUT /exchange-rates", h.putRates)
	mux.HandleFunc("PATCH /exchange-rates", h.patchRates)

	mux.HandleFunc("GET /selection", h.getSelection)
	mux.HandleFunc("PUT /selection/{id}", h.selectCustomer)
	mux.HandleFunc("DELETE /selection", func(w http.ResponseWriter, r *http.Request) {
		h.ledger.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /backup", h.downloadBackup)
	mux.HandleFunc("POST /backups", h.saveBackup)
	mux.HandleFunc("POST /restore", h.restore)
	mux.HandleFunc("POST /reset", h.reset)

	return mux
}

type customerSummary struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	TotalDebtInCUP decimal.Decimal `json:"totalDebtInCUP"`
	TotalBoxDebt   decimal.Decimal `json:"totalBoxDebt"`
}

func summarize(c models.Customer) customerSummary {
	return customerSummary{
		ID:             c.ID,
		Name:           c.Name,
		TotalDebtInCUP: calculator.TotalDebtInCUP(c.Debts),
		TotalBoxDebt:   calculator.TotalBoxDebt(c.BoxTransactions),
	}
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers := h.ledger.Customers()

	summaries := make([]customerSummary, 0, len(customers))
	for _, c := range customers {
		summaries = append(summaries, summarize(c))
	}

	writeJSON(w, http.StatusOK, struct {
		Customers      []customerSummary `json:"customers"`
		TotalDebtInCUP decimal.Decimal   `json:"totalDebtInCUP"`
		TotalBoxDebt   decimal.Decimal   `json:"totalBoxDebt"`
	}{
		Customers:      summaries,
		TotalDebtInCUP: calculator.OverallDebtInCUP(customers),
		TotalBoxDebt:   calculator.OverallBoxDebt(customers),
	})
}

func (h *Handler) addCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.ledger.AddCustomer(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, "addCustomer", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) customerDetails(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.Customer(r.PathValue("id"))
	if err != nil {
		h.writeError(w, "customerDetails", err)
		return
	}

	boxDebts := calculator.BoxDebts(c.BoxTransactions)
	progress := make([]calculator.Progress, 0, len(boxDebts))
	for _, debt := range boxDebts {
		progress = append(progress, calculator.DebtProgress(debt, c.BoxTransactions))
	}

	writeJSON(w, http.StatusOK, struct {
		customerSummary
		Transactions []models.Debt         `json:"transactions"`
		BoxDebts     []calculator.Progress `json:"boxDebts"`
	}{
		customerSummary: summarize(c),
		Transactions:    calculator.SortDebtsByDate(c.Debts),
		BoxDebts:        progress,
	})
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteCustomer(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, "deleteCustomer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// suggestRate fills a missing rate from the current exchange rate table.
func (h *Handler) suggestRate(currency models.Currency, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsZero() {
		return rate
	}
	if suggested, ok := rates.Suggest(h.ledger.ExchangeRates(), currency); ok {
		return suggested
	}
	return rate
}

func (h *Handler) addMonetary(payment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ledger.NewDebt
		if !decodeBody(w, r, &req) {
			return
		}
		req.RateToCUP = h.suggestRate(req.Currency, req.RateToCUP)

		var (
			debt models.Debt
			err  error
		)
		if payment {
			debt, err = h.ledger.AddPayment(r.Context(), r.PathValue("id"), req)
		} else {
			debt, err = h.ledger.AddDebt(r.Context(), r.PathValue("id"), req)
		}
		if err != nil {
			h.writeError(w, "addMonetary", err)
			return
		}
		writeJSON(w, http.StatusCreated, debt)
	}
}

func (h *Handler) addBoxes(w http.ResponseWriter, r *http.Request) {
	var req ledger.NewBoxDebt
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := h.ledger.AddBoxes(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, "addBoxes", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) payBoxes(w http.ResponseWriter, r *http.Request) {
	var req ledger.NewBoxPayment
	if !decodeBody(w, r, &req) {
		return
	}
	req.DebtID = r.PathValue("debtId")
	req.PaymentRateToCUP = h.suggestRate(req.PaymentCurrency, req.PaymentRateToCUP)

	res, err := h.ledger.PayBoxes(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, "payBoxes", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteTransaction(r.Context(), r.PathValue("id"), r.PathValue("txId")); err != nil {
		h.writeError(w, "deleteTransaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.ExchangeRates())
}

func (h *Handler) putRates(w http.ResponseWriter, r *http.Request) {
	var table models.ExchangeRates
	if !decodeBody(w, r, &table) {
		return
	}
	if err := h.ledger.UpdateExchangeRates(r.Context(), table); err != nil {
		h.writeError(w, "putRates", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ledger.ExchangeRates())
}

// patchRates stages per-currency edits on top of the current table. A null or
// non-positive value removes the entry. Nothing is committed when the edits
// leave the table as it was.
func (h *Handler) patchRates(w http.ResponseWriter, r *http.Request) {
	var edits map[models.Currency]*decimal.Decimal
	if !decodeBody(w, r, &edits) {
		return
	}

	draft := rates.NewDraft(h.ledger.ExchangeRates())
	for currency, rate := range edits {
		if rate == nil {
			draft.Clear(currency)
			continue
		}
		draft.Set(currency, *rate)
	}

	if draft.Dirty() {
		if err := h.ledger.UpdateExchangeRates(r.Context(), draft.Rates()); err != nil {
			h.writeError(w, "patchRates", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.ledger.ExchangeRates())
}

func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ledger.Selected()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) selectCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Select(r.PathValue("id")); err != nil {
		h.writeError(w, "selectCustomer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) downloadBackup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(h.now())))
	if err := backup.Export(w, h.ledger.Snapshot()); err != nil {
		config.LogError(h.logger, "httpapi", "downloadBackup", "export snapshot", nil, err)
	}
}

func (h *Handler) saveBackup(w http.ResponseWriter, r *http.Request) {
	path, err := backup.WriteFile(h.backupDir, h.ledger.Snapshot(), h.now())
	if err != nil {
		h.writeError(w, "saveBackup", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	data, err := backup.Decode(r.Body)
	if err != nil {
		h.writeError(w, "restore", err)
		return
	}
	if err := h.ledger.RestoreSnapshot(r.Context(), data); err != nil {
		h.writeError(w, "restore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"customers": len(data.Customers)})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.ResetAll(r.Context()); err != nil {
		h.writeError(w, "reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, funcName string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrDependency):
		status = http.StatusConflict
	default:
		config.LogError(h.logger, "httpapi", funcName, "request failed", nil, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
