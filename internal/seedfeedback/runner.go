package seedfeedback

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pulse/pkg/logger"
)

// Run executes the complete seeding pass: health check, event generation,
// concurrent submission, ratings, and a summary readback to verify the
// service counted what we sent.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting feedback seed run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("children", config.Children),
		logger.Int("rateEvery", config.RateEvery),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate events
	events, err := generateEvents(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("event generation failed: %w", err)
	}

	// Step 3: Submit events concurrently
	if err := submitEvents(ctx, config, events, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	// Step 4: Rate a sample of the submitted events
	ratings := generateFeedback(events, config.RateEvery)
	if err := submitRatings(ctx, config, ratings, stats); err != nil {
		return fmt.Errorf("rating submission failed: %w", err)
	}

	// Step 5: Read the summary back and compare against what was sent
	summary, err := fetchSummary(ctx, config)
	if err != nil {
		return fmt.Errorf("summary retrieval failed: %w", err)
	}
	verifySummary(ctx, summary, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seed run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifySummary compares the service's aggregate view against the seed run.
// Counts can legitimately differ when the store already held events, so
// mismatches are warnings rather than failures.
func verifySummary(ctx context.Context, summary *SummaryResponse, stats *Stats) {
	logger.Get().Info(ctx, "service summary after seeding",
		logger.Int("totalFeedback", summary.TotalFeedback),
		logger.Float64("averageRating", summary.AverageRating),
		logger.Float64("feedbackRate", summary.FeedbackRate))

	if summary.TotalFeedback < stats.RatingsSubmitted {
		logger.Get().Warn(ctx, "summary reports fewer ratings than were accepted",
			logger.Int("reported", summary.TotalFeedback),
			logger.Int("accepted", stats.RatingsSubmitted))
	}
	if stats.RatingsSubmitted > 0 && summary.FeedbackRate == 0 {
		logger.Get().Warn(ctx, "ratings were recorded but the feedback rate is zero")
	}
}

// displayFinalStats prints the final seeding statistics.
func displayFinalStats(stats *Stats) {
	var successRate, eventsPerSecond float64

	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsSuccessful) / float64(stats.EventsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsSuccessful", stats.EventsSuccessful),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("ratingsSubmitted", stats.RatingsSubmitted),
		logger.Int("ratingsFailed", stats.RatingsFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
