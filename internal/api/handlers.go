package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/categorize"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// ListAccounts handles GET /api/v1/accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store(r).ListAccounts(r.Context())
	if err != nil {
		h.log.Error("failed to list accounts", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list accounts")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": out})
}

// ListTransactions handles GET /api/v1/transactions?status=.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter db.TransactionFilter
	switch status := ledger.TransactionStatus(r.URL.Query().Get("status")); status {
	case "", ledger.StatusUncategorized, ledger.StatusCategorized, ledger.StatusPosted:
		filter.Status = status
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid status")
		return
	}
	filter.BankAccountID = r.URL.Query().Get("bank_account_id")

	txns, err := h.store(r).ListBankTransactions(r.Context(), filter)
	if err != nil {
		h.log.Error("failed to list transactions", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": newTransactionResponses(txns)})
}

// GetTransaction handles GET /api/v1/transactions/{id}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.store(r).GetBankTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": newTransactionResponse(txn)})
}

type categoryRequest struct {
	Category string `json:"category"`
}

// SetCategory handles PUT /api/v1/transactions/{id}/category.
// An empty category clears it.
func (h *Handler) SetCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	store := h.store(r)
	txn, err := categorize.Apply(r.Context(), h.categorizer(store), chi.URLParam(r, "id"), req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": newTransactionResponse(txn)})
}

type bulkCategoryRequest struct {
	IDs      []string `json:"ids"`
	Category string   `json:"category"`
}

// BulkCategorize handles POST /api/v1/transactions/categorize.
// The batch is all-or-nothing.
func (h *Handler) BulkCategorize(w http.ResponseWriter, r *http.Request) {
	var req bulkCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if len(req.IDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing ids")
		return
	}

	store := h.store(r)
	txns, err := categorize.ApplyBulk(r.Context(), h.categorizer(store), req.IDs, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": newTransactionResponses(txns)})
}

// Post handles POST /api/v1/transactions/{id}/post.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine(h.store(r)).Post(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, postResponse{
		Transaction:  newTransactionResponse(result.Transaction),
		JournalEntry: newJournalEntryResponse(result.Entry),
	})
}

type bulkPostRequest struct {
	IDs []string `json:"ids"`
}

// BulkPost handles POST /api/v1/transactions/post.
// Items are posted one by one; the response reports each outcome.
func (h *Handler) BulkPost(w http.ResponseWriter, r *http.Request) {
	var req bulkPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	result := h.engine(h.store(r)).BulkPost(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, newBulkPostResponse(result))
}

// GetJournalEntry handles GET /api/v1/journal-entries/{id}.
func (h *Handler) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store(r).GetJournalEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"journal_entry": newJournalEntryResponse(entry)})
}

// DayBook handles GET /api/v1/day-book?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) DayBook(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid from date")
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid to date")
		return
	}

	rows, err := h.store(r).ListDayBook(r.Context(), from, to)
	if err != nil {
		h.log.Error("failed to list day book", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list day book")
		return
	}

	out := make([]dayBookResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, newDayBookResponse(row))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"day_book": out})
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(db.DateLayout, value)
}
