// Package stats computes feedback statistics over event snapshots.
//
// Every function is pure: it takes an already filtered and windowed
// slice of events, never touches a store, and has a defined result on
// empty input. Rounding happens exactly once, at the point a value is
// returned; intermediate sums stay unrounded.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/pulse/internal/domain/model"
)

// dateLayout is the trend bucket key format.
const dateLayout = "2006-01-02"

// Summary aggregates high-level feedback metrics across a set of events.
type Summary struct {
	TotalFeedback int     `json:"total_feedback"`
	AverageRating float64 `json:"average_rating"`
	FeedbackRate  float64 `json:"feedback_rate"`
}

// DailyCount is one trend bucket: a calendar day and its rated-event count.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EntityStats aggregates rated feedback for one entity.
type EntityStats struct {
	EntityID      string  `json:"entity_id"`
	TotalFeedback int     `json:"total_feedback"`
	AvgRating     float64 `json:"avg_rating"`
}

// Improvement captures the consecutive-pair improvement heuristic.
type Improvement struct {
	Rate   string `json:"improvement_rate"`
	Volume int    `json:"feedback_volume"`
}

// ComputeSummary returns rated count, mean rating (2 decimals) and the
// percentage of all events carrying a rating (1 decimal). Unrated
// events count toward the rate denominator but never the numerator.
// Empty input yields all zeros.
func ComputeSummary(events []model.Event) Summary {
	var rated, sum int
	for _, e := range events {
		if e.Rated() {
			rated++
			sum += *e.Rating
		}
	}
	s := Summary{TotalFeedback: rated}
	if rated > 0 {
		s.AverageRating = round2(float64(sum) / float64(rated))
	}
	if len(events) > 0 {
		s.FeedbackRate = round1(float64(rated) / float64(len(events)) * 100)
	}
	return s
}

// DailyTrend buckets rated events per calendar day (UTC) and returns
// the buckets sorted ascending by date. Days without events are not
// synthesized. Unrated events are ignored. Empty input yields an
// empty slice.
func DailyTrend(events []model.Event) []DailyCount {
	counts := make(map[string]int)
	for _, e := range events {
		if !e.Rated() {
			continue
		}
		counts[e.CreatedAt.UTC().Format(dateLayout)]++
	}
	out := make([]DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, DailyCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Correlation returns the Pearson correlation coefficient between
// rating and sentiment score over events carrying both, rounded to
// 2 decimals. Degenerate inputs (no pairs, a single pair, or a
// constant series) return 0.0 rather than NaN or infinity.
func Correlation(events []model.Event) float64 {
	var n float64
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for _, e := range events {
		if !e.Scored() {
			continue
		}
		x := float64(*e.Rating)
		y := *e.Sentiment
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
		sumY2 += y * y
	}
	if n == 0 {
		return 0.0
	}
	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0.0
	}
	return round2(numerator / denominator)
}

// PerEntity groups rated events by entity id and returns count and
// mean rating (2 decimals) per entity, sorted by entity id for
// determinism. Unrated events are excluded entirely. Empty input
// yields an empty slice.
func PerEntity(events []model.Event) []EntityStats {
	type acc struct {
		count int
		sum   int
	}
	groups := make(map[string]*acc)
	for _, e := range events {
		if !e.Rated() {
			continue
		}
		g, ok := groups[e.EntityID]
		if !ok {
			g = &acc{}
			groups[e.EntityID] = g
		}
		g.count++
		g.sum += *e.Rating
	}
	out := make([]EntityStats, 0, len(groups))
	for id, g := range groups {
		es := EntityStats{EntityID: id, TotalFeedback: g.count}
		if g.count > 0 {
			es.AvgRating = round2(float64(g.sum) / float64(g.count))
		}
		out = append(out, es)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// ImprovementRate compares consecutive rated events in the supplied
// order and reports the percentage of pairs where the later rating
// strictly exceeds the former (ties are not improvements), formatted
// with one decimal and a trailing percent sign. Fewer than two rated
// events means no pair can be considered: the result is "0%" with
// volume 0. The input must already be in canonical time order.
func ImprovementRate(events []model.Event) Improvement {
	rated := model.RatedOnly(events)
	if len(rated) < 2 {
		return Improvement{Rate: "0%", Volume: 0}
	}
	improved := 0
	for i := 1; i < len(rated); i++ {
		if *rated[i].Rating > *rated[i-1].Rating {
			improved++
		}
	}
	pairs := len(rated) - 1
	rate := round1(float64(improved) / float64(pairs) * 100)
	return Improvement{
		Rate:   fmt.Sprintf("%.1f%%", rate),
		Volume: len(rated),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
