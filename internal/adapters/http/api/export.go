// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/report"
)

// ExportDependencies defines the interface for export generation.
type ExportDependencies interface {
	Export(ctx context.Context, win model.Window, entityID string) (report.Export, error)
}

// ExportHandler handles CSV export requests.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleGetExport handles GET /export?start=&end=&entity_id= requests
// and streams the rated events as a CSV attachment.
func (h *ExportHandler) HandleGetExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_export"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	win, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	exp, err := h.deps.Export(r.Context(), win, r.URL.Query().Get("entity_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	filename := fmt.Sprintf("feedback-%s.csv", exp.GeneratedAt.UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Report-ID", exp.ReportID)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(report.ExportHeader)
	for _, row := range exp.Rows {
		_ = cw.Write([]string{
			row.ActorID,
			row.EntityID,
			strconv.Itoa(row.Rating),
			row.Feedback,
			row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}
