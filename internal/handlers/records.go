package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minesweeper-classic/internal/records"
)

var (
	ErrBadLimit        = errors.New("limit must not be negative")
	ErrClearDisabled   = errors.New("clearing records is disabled")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrPasswordTooLong = errors.New("password too long")
)

type RecordsHandler struct {
	logger    *slog.Logger
	store     *records.Store
	adminHash []byte
}

func NewRecordsHandler(logger *slog.Logger, store *records.Store, adminHash []byte) *RecordsHandler {
	return &RecordsHandler{
		logger:    logger,
		store:     store,
		adminHash: adminHash,
	}
}

func (h RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseListRecordsDTO(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, h.logger, http.StatusBadRequest, wrapError(err))
		return
	}
	if dto.Limit < 0 {
		sendJSONOrLog(w, h.logger, http.StatusBadRequest, wrapError(ErrBadLimit))
		return
	}

	list, err := h.store.List(r.Context())
	if err != nil {
		sendError(w, h.logger, "unable to list records", err)
		return
	}
	if dto.Limit > 0 && len(list) > dto.Limit {
		list = list[:dto.Limit]
	}

	sendJSONOrLog(w, h.logger, http.StatusOK, list)
}

// Clear wipes the leaderboard. It requires basic auth with the admin
// password; the user name is ignored.
func (h RecordsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if len(h.adminHash) == 0 {
		sendJSONOrLog(w, h.logger, http.StatusForbidden, wrapError(ErrClearDisabled))
		return
	}

	_, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="records"`)
		sendJSONOrLog(w, h.logger, http.StatusUnauthorized, wrapError(ErrBadCredentials))
		return
	}
	if len(password) > 72 {
		sendJSONOrLog(w, h.logger, http.StatusBadRequest, wrapError(ErrPasswordTooLong))
		return
	}

	err := bcrypt.CompareHashAndPassword(h.adminHash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		w.Header().Set("WWW-Authenticate", `Basic realm="records"`)
		sendJSONOrLog(w, h.logger, http.StatusUnauthorized, wrapError(ErrBadCredentials))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.logger.Error("unable to check admin password", slog.Any("error", err))
		return
	}

	if err := h.store.Clear(r.Context()); err != nil {
		sendError(w, h.logger, "unable to clear records", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type Status struct {
	Status         string `json:"status"`
	RecordsBackend string `json:"records_backend,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (h RecordsHandler) Status(w http.ResponseWriter, r *http.Request) {
	backend, err := h.store.Backend(r.Context())
	if err != nil {
		h.logger.Warn("records backend unavailable", slog.Any("error", err))
		sendJSONOrLog(w, h.logger, http.StatusServiceUnavailable, Status{
			Status: "degraded",
			Error:  http.StatusText(http.StatusServiceUnavailable),
		})
		return
	}

	sendJSONOrLog(w, h.logger, http.StatusOK, Status{
		Status:         "ok",
		RecordsBackend: backend,
	})
}
