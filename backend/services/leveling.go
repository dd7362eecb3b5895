package services

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"eroz/backend/models"
)

const (
	// XPPerLevel is the XP needed to climb one level.
	XPPerLevel = 1000
	// ScorePerXP converts a submitted score into XP.
	ScorePerXP = 10
)

// LevelFromXP maps cumulative XP to a level starting at 1.
func LevelFromXP(totalXp int) int {
	if totalXp < 0 {
		totalXp = 0
	}
	return totalXp/XPPerLevel + 1
}

// XPForScore is the XP earned by one submission. score is never negative.
func XPForScore(score int) int {
	return score / ScorePerXP
}

// DifficultyMultiplier is the tier bonus applied by generated demo sessions.
func DifficultyMultiplier(difficulty string) float64 {
	switch difficulty {
	case models.DifficultyMedium:
		return 1.5
	case models.DifficultyHard:
		return 2.0
	default:
		return 1.0
	}
}

// StreakFromDates counts consecutive calendar days (UTC) ending at the most
// recent date in dates. Several sessions on one day count once.
func StreakFromDates(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := calendarDay(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			streak++
			continue
		}
		break
	}
	return streak
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PickRandom returns one of ids chosen with rng, or false when ids is empty.
func PickRandom(ids []uint, rng *rand.Rand) (uint, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[rng.Intn(len(ids))], true
}

// roundHalfEven matches the rounding used for averages of a full rebuild.
func roundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}
