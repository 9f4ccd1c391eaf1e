// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/pulse/internal/domain/dedupe"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/report"
	"github.com/okian/pulse/internal/domain/stats"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// AppendEvent records a new interaction event.
	AppendEvent(ctx context.Context, e model.Event) error

	// RecordRating attaches a rating and optional comment to an
	// existing event and returns the updated event.
	RecordRating(ctx context.Context, eventID string, rating int, comment string) (model.Event, error)

	// Read operations expose aggregated feedback reports.
	Summary(ctx context.Context, win model.Window, entityID string) (stats.Summary, error)
	Trend(ctx context.Context, days int) (report.Trend, error)
	Correlation(ctx context.Context, win model.Window, entityID string) (float64, error)
	PerEntity(ctx context.Context, win model.Window) ([]stats.EntityStats, error)
	Improvement(ctx context.Context, days int) (report.ImprovementReport, error)
	Dashboard(ctx context.Context, win model.Window, entityID string) (report.Dashboard, error)
	Export(ctx context.Context, win model.Window, entityID string) (report.Export, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	feedbackHandler    *FeedbackHandler
	summaryHandler     *SummaryHandler
	trendHandler       *TrendHandler
	correlationHandler *CorrelationHandler
	entitiesHandler    *EntitiesHandler
	improvementHandler *ImprovementHandler
	exportHandler      *ExportHandler
	dashboardHandler   *DashboardHandler
	streamHandler      *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, subscriber Subscriber) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		feedbackHandler:    NewFeedbackHandler(deps),
		summaryHandler:     NewSummaryHandler(deps),
		trendHandler:       NewTrendHandler(deps),
		correlationHandler: NewCorrelationHandler(deps),
		entitiesHandler:    NewEntitiesHandler(deps),
		improvementHandler: NewImprovementHandler(deps),
		exportHandler:      NewExportHandler(deps),
		dashboardHandler:   NewDashboardHandler(deps),
		streamHandler:      NewStreamHandler(subscriber),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/feedback", MetricsMiddleware(s.feedbackHandler.HandlePostFeedback, "feedback"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/trend", MetricsMiddleware(s.trendHandler.HandleGetTrend, "trend"))
	mux.HandleFunc("/correlation", MetricsMiddleware(s.correlationHandler.HandleGetCorrelation, "correlation"))
	mux.HandleFunc("/entities", MetricsMiddleware(s.entitiesHandler.HandleGetEntities, "entities"))
	mux.HandleFunc("/improvement", MetricsMiddleware(s.improvementHandler.HandleGetImprovement, "improvement"))
	mux.HandleFunc("/export", MetricsMiddleware(s.exportHandler.HandleGetExport, "export"))
	mux.HandleFunc("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))
	mux.HandleFunc("/feedback-stream", s.streamHandler.HandleStream)
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseWindow reads optional start and end query parameters as RFC3339
// timestamps. Absent parameters leave the corresponding side unbounded.
func parseWindow(r *http.Request) (model.Window, error) {
	var win model.Window
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.Window{}, WrapKind("api.parse_window", ErrBadRequest, err)
		}
		win.Start = t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.Window{}, WrapKind("api.parse_window", ErrBadRequest, err)
		}
		win.End = t
	}
	if err := win.Validate(); err != nil {
		return model.Window{}, WrapKind("api.parse_window", ErrBadRequest, err)
	}
	return win, nil
}
