// Package handler adapts entity pipelines to HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medplant/internal/pipeline"
	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/platform/audit"
	"medplant/pkg/platform/httputil"
	"medplant/pkg/requestcontext"
)

// Service is the pipeline surface used by the handler.
type Service[E pipeline.Entity] interface {
	List(ctx context.Context) ([]E, error)
	Details(ctx context.Context, id int64, op string) (E, error)
	Create(ctx context.Context, input E) (E, error)
	Update(ctx context.Context, id int64, input E) (E, error)
	Delete(ctx context.Context, id int64) (E, error)
	Exists(ctx context.Context, field, value string, excludeID int64) (bool, error)
	RejectInput(ctx context.Context, op string, id int64, cause *dErrors.Error) error
}

// Handler serves one entity under its own route prefix.
type Handler[E pipeline.Entity] struct {
	service   Service[E]
	label     string
	newEntity func() E
	logger    *slog.Logger
}

func New[E pipeline.Entity](service Service[E], label string, newEntity func() E, logger *slog.Logger) *Handler[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler[E]{
		service:   service,
		label:     label,
		newEntity: newEntity,
		logger:    logger,
	}
}

// ForPipeline builds a handler from a pipeline and its policy.
func ForPipeline[E pipeline.Entity](p *pipeline.Pipeline[E], logger *slog.Logger) *Handler[E] {
	pol := p.Policy()
	return New[E](p, pol.Label, pol.New, logger)
}

// Register mounts the entity routes on r, which is already scoped to the
// entity's prefix.
func (h *Handler[E]) Register(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Get("/data", h.HandleLoadData)
	r.Get("/exists", h.HandleExists)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleDetails)
	r.Get("/{id}/edit", h.HandleEdit)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

type listData[E any] struct {
	Items []E `json:"items"`
	Total int `json:"total"`
}

func (h *Handler[E]) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.list(w, r)
}

// HandleLoadData serves the grid data used by the index page.
func (h *Handler[E]) HandleLoadData(w http.ResponseWriter, r *http.Request) {
	h.list(w, r)
}

func (h *Handler[E]) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, "list", err)
		return
	}
	if items == nil {
		items = []E{}
	}
	httputil.WriteSuccess(w, http.StatusOK, "", listData[E]{Items: items, Total: len(items)})
}

func (h *Handler[E]) HandleDetails(w http.ResponseWriter, r *http.Request) {
	h.details(w, r, audit.OpView)
}

func (h *Handler[E]) HandleEdit(w http.ResponseWriter, r *http.Request) {
	h.details(w, r, audit.OpEditView)
}

func (h *Handler[E]) details(w http.ResponseWriter, r *http.Request, op string) {
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	e, err := h.service.Details(r.Context(), id, op)
	if err != nil {
		h.writeError(w, r, "details", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", e)
}

func (h *Handler[E]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input := h.newEntity()
	if err := httputil.DecodeInto(w, r, input); err != nil {
		h.rejectInput(w, r, audit.OpCreate, 0, err)
		return
	}
	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, "create", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, h.label+" created successfully!", created)
}

func (h *Handler[E]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, audit.OpUpdate)
	if !ok {
		return
	}
	input := h.newEntity()
	if err := httputil.DecodeInto(w, r, input); err != nil {
		h.rejectInput(w, r, audit.OpUpdate, id, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, "update", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, h.label+" updated successfully!", updated)
}

func (h *Handler[E]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, audit.OpDelete)
	if !ok {
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, "delete", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, h.label+" deleted successfully!", nil)
}

// HandleExists answers GET /exists?field=&value=&excludeId=.
func (h *Handler[E]) HandleExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var excludeID int64
	if raw := q.Get("excludeId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.rejectInput(w, r, audit.OpExists, 0, dErrors.Field(dErrors.CodeBadRequest, "excludeId", "must be a number"))
			return
		}
		excludeID = v
	}
	exists, err := h.service.Exists(r.Context(), q.Get("field"), q.Get("value"), excludeID)
	if err != nil {
		h.writeError(w, r, "exists", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", map[string]bool{"exists": exists})
}

func (h *Handler[E]) pathID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.rejectInput(w, r, op, 0, dErrors.Field(dErrors.CodeBadRequest, "id", "must be a positive number"))
		return 0, false
	}
	return id, true
}

// rejectInput audits unreadable input through the service and writes the
// resulting error.
func (h *Handler[E]) rejectInput(w http.ResponseWriter, r *http.Request, op string, id int64, err error) {
	cause, ok := dErrors.As(err)
	if !ok {
		cause = dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request")
	}
	httputil.WriteError(w, h.service.RejectInput(r.Context(), op, id, cause))
}

func (h *Handler[E]) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) || !isDomain(err) {
		h.logger.ErrorContext(r.Context(), "entity request failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"entity", h.label,
			"op", op,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func isDomain(err error) bool {
	_, ok := dErrors.As(err)
	return ok
}
