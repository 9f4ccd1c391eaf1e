package seedfeedback

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pulse/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	sentimentShapes    = 6
	spreadHours        = 24 * 30
)

// Constants for sentiment distribution shapes.
const (
	caseNeutral      = 0
	caseMildPositive = 1
	casePositive     = 2
	caseMildNegative = 3
	caseNegative     = 4
	caseUnscored     = 5
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIndex returns a random int in [0, n).
func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateEvents creates events spread over the last month across a pool of
// child profiles, each with its own parent actor id.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, error) {
	logger.Get().Info(ctx, "generating advice events",
		logger.Int("numEvents", config.NumEvents),
		logger.Int("children", config.Children))

	// Each child profile belongs to one parent actor.
	children := make([]string, config.Children)
	actors := make([]string, config.Children)
	for i := range children {
		children[i] = "child-" + strconv.Itoa(i+1)
		actors[i] = uuid.New().String()
	}

	events := make([]Event, config.NumEvents)
	now := time.Now().UTC()
	for i := range events {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		child := randomIndex(config.Children)
		events[i] = Event{
			EventID:        uuid.New().String(),
			EntityID:       children[child],
			ActorID:        actors[child],
			SentimentScore: generateSentiment(),
			CreatedAt:      now.Add(-time.Duration(randomIndex(spreadHours)) * time.Hour).Format(time.RFC3339),
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, nil
}

// generateSentiment produces a varied sentiment distribution in [-1, 1].
// A share of events carries no score at all, matching real ingest where
// sentiment analysis is not always available.
func generateSentiment() *float64 {
	var v float64
	switch randomIndex(sentimentShapes) {
	case caseNeutral:
		// Neutral band (-0.2 - 0.2) - most common
		v = -0.2 + getRandomFloat()*0.4
	case caseMildPositive:
		// Mildly positive (0.2 - 0.6)
		v = 0.2 + getRandomFloat()*0.4
	case casePositive:
		// Strongly positive (0.6 - 1.0)
		v = 0.6 + getRandomFloat()*0.4
	case caseMildNegative:
		// Mildly negative (-0.6 - -0.2)
		v = -0.6 + getRandomFloat()*0.4
	case caseNegative:
		// Strongly negative (-1.0 - -0.6)
		v = -1.0 + getRandomFloat()*0.4
	default:
		return nil
	}
	return &v
}

// ratingComments is sampled when submitting ratings.
var ratingComments = []string{
	"",
	"this worked on the first try",
	"helped a little but needed tweaking",
	"did not fit our routine",
	"great suggestion, thank you",
	"too generic for our situation",
}

// generateFeedback picks events to rate and assigns ratings skewed toward
// the upper half of the 1-5 scale.
func generateFeedback(events []Event, rateEvery int) []Feedback {
	if rateEvery < 1 {
		rateEvery = 1
	}
	ratings := make([]Feedback, 0, len(events)/rateEvery+1)
	for i, event := range events {
		if i%rateEvery != 0 {
			continue
		}
		// 1..5 with a positive skew: roll twice, keep the higher value.
		a, b := randomIndex(5)+1, randomIndex(5)+1
		rating := a
		if b > a {
			rating = b
		}
		ratings = append(ratings, Feedback{
			EventID: event.EventID,
			Rating:  rating,
			Comment: ratingComments[randomIndex(len(ratingComments))],
		})
	}
	return ratings
}
