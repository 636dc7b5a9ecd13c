package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/platform/audit"
	"medplant/pkg/platform/httputil"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditReader is the query side of the audit sink.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
	ListByEntity(ctx context.Context, entityType, recordID string) ([]audit.Entry, error)
	ListByAction(ctx context.Context, action string) ([]audit.Entry, error)
}

// AuditHandler serves GET /admin/audit. Filters are mutually exclusive and
// checked in order: entity (with record), action, then most recent.
type AuditHandler struct {
	reader AuditReader
	logger *slog.Logger
}

func NewAuditHandler(reader AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger}
}

func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	limit := defaultAuditLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.Field(dErrors.CodeBadRequest, "limit", "must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}

	var (
		entries []audit.Entry
		err     error
	)
	switch {
	case q.Get("entity") != "":
		entries, err = h.reader.ListByEntity(ctx, q.Get("entity"), q.Get("record"))
	case q.Get("action") != "":
		entries, err = h.reader.ListByAction(ctx, q.Get("action"))
	default:
		entries, err = h.reader.ListRecent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit entries", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	httputil.WriteSuccess(w, http.StatusOK, "", entries)
}
