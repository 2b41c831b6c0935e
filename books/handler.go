package books

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jonwraymond/integrationhealth/observe"
)

// Integration identifies the database in health reports and telemetry.
var Integration = observe.IntegrationMeta{Name: "mongodb", Kind: "database", Operation: "insert"}

// maxBodyBytes bounds the request body of POST /book.
const maxBodyBytes = 1 << 16

// Handler serves POST /book.
type Handler struct {
	store Store
	calls *observe.Middleware
}

// NewHandler creates a Handler. calls instruments, logs and reports every
// store call; a nil calls only runs the store.
func NewHandler(store Store, calls *observe.Middleware) *Handler {
	if calls == nil {
		calls = observe.NewMiddleware(nil, nil, nil, nil)
	}
	return &Handler{store: store, calls: calls}
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /book", h)
}

type createRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP stores the posted book. Store failures are reported to the
// health integration and answered with 500.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidName.Error()})
		return
	}

	var saved Book
	err := h.calls.Call(r.Context(), Integration, func(ctx context.Context) error {
		if req.Name == SimulatedFailureName {
			return ErrSimulated
		}
		if h.store == nil {
			return ErrNoStore
		}
		var err error
		saved, err = h.store.Insert(ctx, Book{Name: req.Name})
		return err
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not save book"})
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
