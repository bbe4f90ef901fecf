package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/finanbot/finanbot/internal/auth"
	"github.com/finanbot/finanbot/internal/events"
	"github.com/finanbot/finanbot/internal/http/respond"
	"github.com/finanbot/finanbot/internal/middleware"
	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/models/dto"
	"github.com/finanbot/finanbot/internal/storage"
	"github.com/finanbot/finanbot/internal/summary"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// EventPublisher emits transaction change events. Nil disables publishing.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *events.TransactionEvent) error
}

// TransactionsHandler owns transaction CRUD plus the summary and alerts
// endpoints.
type TransactionsHandler struct {
	store     storage.Store
	tokens    *auth.TokenManager
	publisher EventPublisher
}

// NewTransactionsHandler constructs the handler.
func NewTransactionsHandler(store storage.Store, tokens *auth.TokenManager, publisher EventPublisher) *TransactionsHandler {
	return &TransactionsHandler{store: store, tokens: tokens, publisher: publisher}
}

// Register attaches transaction routes to the mux. All routes require an
// authenticated user.
func (h *TransactionsHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireUser(h.tokens, h.store, fn)
	}
	mux.Handle("POST /v1/transactions", protect(h.handleCreate))
	mux.Handle("GET /v1/transactions", protect(h.handleList))
	mux.Handle("GET /v1/transactions/summary", protect(h.handleSummary))
	mux.Handle("GET /v1/transactions/alerts", protect(h.handleAlerts))
	mux.Handle("GET /v1/transactions/{id}", protect(h.handleGet))
	mux.Handle("PATCH /v1/transactions/{id}", protect(h.handleUpdate))
	mux.Handle("DELETE /v1/transactions/{id}", protect(h.handleDelete))
}

func (h *TransactionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req dto.TransactionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Amount == 0 {
		respond.Error(w, http.StatusBadRequest, "transaction amount cannot be zero")
		return
	}
	if req.OccurredAt.IsZero() {
		respond.Error(w, http.StatusBadRequest, "occurred_at is required")
		return
	}
	if req.Type != "" && !validTransactionType(req.Type) {
		respond.Error(w, http.StatusBadRequest, "type must be income or expense")
		return
	}

	tx := models.Transaction{
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		OccurredAt: req.OccurredAt,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Type:       req.Type,
		Notes:      req.Notes,
	}
	if tx.Currency == "" {
		tx.Currency = models.DefaultCurrency
	}
	if tx.Type == "" {
		tx.Type = models.TransactionExpense
		if tx.Amount > 0 {
			tx.Type = models.TransactionIncome
		}
	}

	created, err := h.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "create transaction failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	h.publish(r.Context(), created, events.ActionCreated)
	respond.JSON(w, http.StatusCreated, "transaction created", created)
}

func (h *TransactionsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	tx, ok := ownedTransaction(w, r, h.store)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "transaction", tx)
}

func (h *TransactionsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tx, ok := ownedTransaction(w, r, h.store)
	if !ok {
		return
	}

	var req dto.TransactionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.CategoryID != nil {
		tx.CategoryID = req.CategoryID
	}
	if req.OccurredAt != nil {
		tx.OccurredAt = *req.OccurredAt
	}
	if req.Amount != nil {
		if *req.Amount == 0 {
			respond.Error(w, http.StatusBadRequest, "transaction amount cannot be zero")
			return
		}
		tx.Amount = *req.Amount
	}
	if req.Currency != nil {
		tx.Currency = *req.Currency
	}
	if req.Type != nil {
		if !validTransactionType(*req.Type) {
			respond.Error(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
		tx.Type = *req.Type
	}
	if req.Notes != nil {
		tx.Notes = *req.Notes
	}

	updated, err := h.store.UpdateTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "update transaction failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	h.publish(r.Context(), updated, events.ActionUpdated)
	respond.JSON(w, http.StatusOK, "transaction updated", updated)
}

func (h *TransactionsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	tx, ok := ownedTransaction(w, r, h.store)
	if !ok {
		return
	}
	if err := h.store.DeleteTransaction(r.Context(), tx.ID); err != nil {
		slog.ErrorContext(r.Context(), "delete transaction failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	h.publish(r.Context(), tx, events.ActionDeleted)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, total, err := h.store.ListTransactions(r.Context(), user.ID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "list transactions failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	respond.JSON(w, http.StatusOK, "transactions", dto.PaginatedTransactions{
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Items:  txs,
	})
}

func (h *TransactionsHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "month must be an integer")
		return
	}
	if year < 1 || month < 1 || month > 12 {
		respond.Error(w, http.StatusBadRequest, "year and month must identify a calendar month")
		return
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	txs, err := h.allTransactions(r.Context(), user.ID, start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "fetch month transactions failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	result, err := summary.Monthly(txs, year, month)
	if err != nil {
		if errors.Is(err, summary.ErrValidation) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	respond.JSON(w, http.StatusOK, "monthly summary", result)
}

func (h *TransactionsHandler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	asOf := time.Now()
	txs, err := h.allTransactions(r.Context(), user.ID, asOf.AddDate(0, 0, -30), asOf)
	if err != nil {
		slog.ErrorContext(r.Context(), "fetch recent transactions failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to compute alerts")
		return
	}
	respond.JSON(w, http.StatusOK, "alerts", summary.Alerts(txs, asOf))
}

// ownedTransaction loads the path-id transaction and hides other users'
// rows behind 404. Shared by the transactions and attachments handlers.
func ownedTransaction(w http.ResponseWriter, r *http.Request, store storage.TransactionStore) (models.Transaction, bool) {
	user, _ := middleware.UserFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid transaction id")
		return models.Transaction{}, false
	}
	tx, err := store.TransactionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "transaction not found")
			return models.Transaction{}, false
		}
		slog.ErrorContext(r.Context(), "fetch transaction failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch transaction")
		return models.Transaction{}, false
	}
	if tx.UserID != user.ID {
		respond.Error(w, http.StatusNotFound, "transaction not found")
		return models.Transaction{}, false
	}
	return tx, true
}

// allTransactions pages through every transaction in [start, end].
func (h *TransactionsHandler) allTransactions(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Transaction, error) {
	filter := storage.TransactionFilter{
		Start: &start,
		End:   &end,
		Limit: maxPageLimit,
	}
	var all []models.Transaction
	for {
		page, total, err := h.store.ListTransactions(ctx, userID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		filter.Offset = len(all)
	}
}

func (h *TransactionsHandler) publish(ctx context.Context, tx models.Transaction, action string) {
	if h.publisher == nil {
		return
	}
	event := events.NewTransactionEvent(tx.ID, tx.UserID, action)
	if err := h.publisher.PublishTransactionEvent(ctx, event); err != nil {
		// the write already succeeded; a lost event only delays alerts
		slog.ErrorContext(ctx, "publish transaction event failed",
			"error", err, "tx_id", tx.ID, "action", action)
	}
}

func validTransactionType(t string) bool {
	return t == models.TransactionIncome || t == models.TransactionExpense
}

func parseFilter(r *http.Request) (storage.TransactionFilter, error) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{Limit: defaultPageLimit}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filter, errors.New("limit must be a positive integer")
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("start_date must be RFC 3339")
		}
		filter.Start = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("end_date must be RFC 3339")
		}
		filter.End = &t
	}
	if v := q.Get("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("category must be a UUID")
		}
		filter.CategoryID = &id
	}
	if v := q.Get("min_amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("min_amount must be a number")
		}
		filter.MinAmount = &amount
	}
	if v := q.Get("max_amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("max_amount must be a number")
		}
		filter.MaxAmount = &amount
	}
	return filter, nil
}
