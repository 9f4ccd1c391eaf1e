package seedfeedback

import "time"

// Config holds configuration for the feedback seeding run
type Config struct {
	BaseURL   string        // Base URL of the service
	NumEvents int           // Number of events to generate
	Children  int           // Number of distinct child profiles
	RateEvery int           // Rate one event out of every N submitted
	Workers   int           // Number of concurrent workers
	Timeout   time.Duration // HTTP request timeout
	LogFile   string        // Log file for seed output
	Verbose   bool          // Enable verbose logging
}

// Event represents an advice event to be submitted
type Event struct {
	EventID        string   `json:"event_id"`
	EntityID       string   `json:"entity_id"`
	ActorID        string   `json:"actor_id"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

// Feedback represents a rating to be submitted for an event
type Feedback struct {
	EventID string `json:"event_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// SummaryResponse mirrors the /summary payload used for verification
type SummaryResponse struct {
	TotalFeedback int     `json:"total_feedback"`
	AverageRating float64 `json:"average_rating"`
	FeedbackRate  float64 `json:"feedback_rate"`
}

// Stats holds seeding statistics
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	RatingsSubmitted int
	RatingsFailed    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
