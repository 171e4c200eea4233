// Package insights turns a window of mood check-ins into the summary shown on
// the wellness dashboard.
package insights

import (
	"fmt"
	"time"

	"mindwell/internal/apperr"
	"mindwell/internal/models"
)

const (
	// DefaultWindow is how many of the most recent entries the read path fetches.
	DefaultWindow = 30
	// RecentEntriesLimit bounds WellnessInsights.RecentEntries.
	RecentEntriesLimit = 7

	minScore = 1
	maxScore = 5
)

// Entries are newest-first. The window is split by position at len/2: the
// leading (newest) half is the baseline and the trailing (oldest) half is
// compared against it. A trailing mean above the baseline reads as improving,
// so [5,5,5,1,1,1] is declining.
const trendSplitBaselineLeading = true

const (
	RecommendStartTracking = "Start tracking your mood daily to unlock personalized insights."
	RecommendMeditation    = "Your mood has been low lately. Try a short guided meditation for anxiety to help calm your mind."
	RecommendJournaling    = "Your mood has been trending down. Journaling about what's on your mind can help you process it."
	RecommendKeepGoing     = "You're doing great! Keep up the habits that are supporting your wellbeing."
	RecommendEncouragement = "Keep checking in each day. Small steps add up to real progress."
)

// Compute builds WellnessInsights from entries ordered newest-first. Calendar
// days for the streak are taken in loc; a nil loc means time.Local.
func Compute(entries []models.MoodEntry, loc *time.Location) (models.WellnessInsights, error) {
	if len(entries) == 0 {
		return models.WellnessInsights{
			MoodTrend:       models.TrendStable,
			AverageMood:     0,
			RecentEntries:   []models.MoodEntry{},
			StreakDays:      0,
			Recommendations: []string{RecommendStartTracking},
		}, nil
	}
	for i, e := range entries {
		if e.MoodScore < minScore || e.MoodScore > maxScore {
			return models.WellnessInsights{}, apperr.Invalid(fmt.Sprintf("entries[%d].mood_score", i), fmt.Sprintf("must be between %d and %d", minScore, maxScore))
		}
	}
	if loc == nil {
		loc = time.Local
	}

	avg := mean(entries)
	trend := Trend(entries)

	recent := entries
	if len(recent) > RecentEntriesLimit {
		recent = recent[:RecentEntriesLimit]
	}
	recentCopy := make([]models.MoodEntry, len(recent))
	copy(recentCopy, recent)

	return models.WellnessInsights{
		MoodTrend:       trend,
		AverageMood:     avg,
		RecentEntries:   recentCopy,
		StreakDays:      ActiveDays(entries, loc),
		Recommendations: Recommendations(avg, trend),
	}, nil
}

// Trend compares the two positional halves of a newest-first window.
func Trend(entries []models.MoodEntry) models.MoodTrend {
	half := len(entries) / 2
	baseline, compared := entries[:half], entries[half:]
	if !trendSplitBaselineLeading {
		baseline, compared = compared, baseline
	}
	if len(baseline) == 0 || len(compared) == 0 {
		return models.TrendStable
	}
	b, c := mean(baseline), mean(compared)
	switch {
	case c > b:
		return models.TrendImproving
	case c < b:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// ActiveDays counts distinct calendar days in loc. It is not a consecutive-day
// streak: three check-ins spread over a month count as 3.
func ActiveDays(entries []models.MoodEntry, loc *time.Location) int {
	days := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		days[e.CreatedAt.In(loc).Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

// Recommendations applies the rules in a fixed order; several may fire.
func Recommendations(avg float64, trend models.MoodTrend) []string {
	var out []string
	if avg < 3 {
		out = append(out, RecommendMeditation)
	}
	if trend == models.TrendDeclining {
		out = append(out, RecommendJournaling)
	}
	if avg >= 4 {
		out = append(out, RecommendKeepGoing)
	}
	if len(out) == 0 {
		out = append(out, RecommendEncouragement)
	}
	return out
}

func mean(entries []models.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.MoodScore
	}
	return float64(sum) / float64(len(entries))
}
