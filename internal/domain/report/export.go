package report

import (
	"context"
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/metrics"
)

// ExportHeader is the CSV column order for export rows.
var ExportHeader = []string{"actor_id", "entity_id", "rating", "feedback", "timestamp"}

// ExportRow is one rated event flattened for serialization.
type ExportRow struct {
	ActorID   string    `json:"actor_id"`
	EntityID  string    `json:"entity_id"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"timestamp"`
}

// Export is the row-oriented report plus its generation metadata.
type Export struct {
	ReportID    string      `json:"report_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	RowCount    int         `json:"row_count"`
	Window      Applied     `json:"window"`
	EntityID    string      `json:"entity_id,omitempty"`
	Rows        []ExportRow `json:"rows"`
}

// Applied records the filters the export was generated under,
// formatted for the header metadata. Zero sides render empty.
type Applied struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Export builds the flat export report: one row per rated event in the
// window/filter, ordered canonically, with header metadata.
func (a *Assembler) Export(ctx context.Context, win model.Window, entityID string) (Export, error) {
	events, err := a.query(ctx, win, entityID, true)
	if err != nil {
		return Export{}, err
	}

	rows := make([]ExportRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, ExportRow{
			ActorID:   e.ActorID,
			EntityID:  e.EntityID,
			Rating:    *e.Rating,
			Feedback:  e.Comment,
			CreatedAt: e.CreatedAt,
		})
	}

	applied := Applied{}
	if !win.Start.IsZero() {
		applied.Start = win.Start.UTC().Format(time.RFC3339)
	}
	if !win.End.IsZero() {
		applied.End = win.End.UTC().Format(time.RFC3339)
	}

	metrics.RecordReportGenerated("export")
	return Export{
		ReportID:    reportID(),
		GeneratedAt: a.now(),
		RowCount:    len(rows),
		Window:      applied,
		EntityID:    entityID,
		Rows:        rows,
	}, nil
}
