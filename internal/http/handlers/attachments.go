package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/finanbot/finanbot/internal/attachments"
	"github.com/finanbot/finanbot/internal/auth"
	"github.com/finanbot/finanbot/internal/http/respond"
	"github.com/finanbot/finanbot/internal/middleware"
	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

// maxAttachmentSize bounds upload bodies at 10 MiB.
const maxAttachmentSize = 10 << 20

// AttachmentsHandler owns the per-transaction attachment endpoints.
type AttachmentsHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	files  *attachments.FileStore
}

// NewAttachmentsHandler constructs the handler.
func NewAttachmentsHandler(store storage.Store, tokens *auth.TokenManager, files *attachments.FileStore) *AttachmentsHandler {
	return &AttachmentsHandler{store: store, tokens: tokens, files: files}
}

// Register attaches attachment routes to the mux.
func (h *AttachmentsHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireUser(h.tokens, h.store, fn)
	}
	mux.Handle("POST /v1/transactions/{id}/attachment", protect(h.handleUpload))
	mux.Handle("GET /v1/transactions/{id}/attachment", protect(h.handleDownload))
	mux.Handle("DELETE /v1/transactions/{id}/attachment", protect(h.handleDelete))
}

func (h *AttachmentsHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	tx, ok := ownedTransaction(w, r, h.store)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "attachment exceeds the 10 MiB limit")
			return
		}
		respond.Error(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	path, err := h.files.Save(tx.ID, contentType, file)
	if err != nil {
		if errors.Is(err, attachments.ErrUnsupportedType) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "save attachment failed", "error", err, "tx_id", tx.ID)
		respond.Error(w, http.StatusInternalServerError, "failed to save attachment")
		return
	}

	// replace any previous metadata row for this transaction
	_ = h.store.DeleteAttachment(r.Context(), tx.ID)
	att, err := h.store.CreateAttachment(r.Context(), models.Attachment{
		TxID:        tx.ID,
		Filename:    header.Filename,
		ContentType: contentType,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "record attachment failed", "error", err, "tx_id", tx.ID)
		respond.Error(w, http.StatusInternalServerError, "failed to record attachment")
		return
	}

	tx.AttachmentPath = path
	if _, err := h.store.UpdateTransaction(r.Context(), tx); err != nil {
		slog.ErrorContext(r.Context(), "link attachment failed", "error", err, "tx_id", tx.ID)
	}
	respond.JSON(w, http.StatusCreated, "attachment uploaded", att)
}

func (h *AttachmentsHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	tx, ok := ownedTransaction(w, r, h.store)
	if !ok {
		return
	}

	att, err := h.store.AttachmentByTransaction(r.Context(), tx.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "attachment not found")
			return
		}
		slog.ErrorContext(r.Context(), "fetch attachment failed", "error", err, "tx_id", tx.ID)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch attachment")
		return
	}

	f, err := h.files.Open(tx.ID, att.ContentType)
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "attachment file missing")
			return
		}
		slog.ErrorContext(r.Context(), "open attachment failed", "error", err, "tx_id", tx.ID)
		respond.Error(w, http.StatusInternalServerError, "failed to open attachment")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+att.Filename+`"`)
	if _, err := io.Copy(w, f); err != nil {
		slog.ErrorContext(r.Context(), "stream attachment failed", "error", err, "tx_id", tx.ID)
	}
}

func (h *AttachmentsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	tx, ok := ownedTransaction(w, r, h.store)
	if !ok {
		return
	}

	if err := h.files.Delete(tx.ID); err != nil {
		slog.ErrorContext(r.Context(), "delete attachment file failed", "error", err, "tx_id", tx.ID)
		respond.Error(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}
	if err := h.store.DeleteAttachment(r.Context(), tx.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "delete attachment metadata failed", "error", err, "tx_id", tx.ID)
		respond.Error(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}
	if tx.AttachmentPath != "" {
		tx.AttachmentPath = ""
		if _, err := h.store.UpdateTransaction(r.Context(), tx); err != nil {
			slog.ErrorContext(r.Context(), "unlink attachment failed", "error", err, "tx_id", tx.ID)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
