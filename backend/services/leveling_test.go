package services

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"eroz/backend/models"
)

func day(offset int, hour int) time.Time {
	return time.Date(2025, time.March, 12+offset, hour, 0, 0, 0, time.UTC)
}

func TestLevelFromXP(t *testing.T) {
	Convey("Given cumulative XP", t, func() {
		Convey("Levels start at 1 and climb every 1000 XP", func() {
			So(LevelFromXP(0), ShouldEqual, 1)
			So(LevelFromXP(999), ShouldEqual, 1)
			So(LevelFromXP(1000), ShouldEqual, 2)
			So(LevelFromXP(2500), ShouldEqual, 3)
		})

		Convey("Negative XP is treated as zero", func() {
			So(LevelFromXP(-50), ShouldEqual, 1)
		})
	})
}

func TestXPForScore(t *testing.T) {
	Convey("XP is the score divided by 10, rounded down", t, func() {
		So(XPForScore(800), ShouldEqual, 80)
		So(XPForScore(809), ShouldEqual, 80)
		So(XPForScore(9), ShouldEqual, 0)
		So(XPForScore(1999), ShouldEqual, 199)
		So(XPForScore(0), ShouldEqual, 0)
	})
}

func TestDifficultyMultiplier(t *testing.T) {
	Convey("Tiers map to their bonus", t, func() {
		So(DifficultyMultiplier(models.DifficultyEasy), ShouldEqual, 1.0)
		So(DifficultyMultiplier(models.DifficultyMedium), ShouldEqual, 1.5)
		So(DifficultyMultiplier(models.DifficultyHard), ShouldEqual, 2.0)
		So(DifficultyMultiplier("UNKNOWN"), ShouldEqual, 1.0)
	})
}

func TestStreakFromDates(t *testing.T) {
	Convey("Given activity dates", t, func() {
		Convey("No dates means no streak", func() {
			So(StreakFromDates(nil), ShouldEqual, 0)
		})

		Convey("A single day is a streak of one", func() {
			So(StreakFromDates([]time.Time{day(0, 9)}), ShouldEqual, 1)
		})

		Convey("Several sessions on one day count once and a gap ends the streak", func() {
			dates := []time.Time{day(0, 9), day(0, 18), day(-1, 12), day(-3, 8)}
			So(StreakFromDates(dates), ShouldEqual, 2)
		})

		Convey("Order of the input does not matter", func() {
			dates := []time.Time{day(-2, 1), day(0, 23), day(-1, 12)}
			So(StreakFromDates(dates), ShouldEqual, 3)
		})

		Convey("The streak is anchored on the most recent day, not today", func() {
			dates := []time.Time{day(-30, 10), day(-31, 10)}
			So(StreakFromDates(dates), ShouldEqual, 2)
		})

		Convey("Dates in other zones are compared by their UTC day", func() {
			paris := time.FixedZone("CET", 3600)
			// 00:30 in Paris is still the previous UTC day.
			dates := []time.Time{time.Date(2025, time.March, 13, 0, 30, 0, 0, paris), day(-1, 10)}
			So(StreakFromDates(dates), ShouldEqual, 2)
		})
	})
}

func TestPickRandom(t *testing.T) {
	Convey("Given an explicit random source", t, func() {
		Convey("An empty list yields nothing", func() {
			_, ok := PickRandom(nil, rand.New(rand.NewSource(1)))
			So(ok, ShouldBeFalse)
		})

		Convey("The same seed picks the same id", func() {
			ids := []uint{4, 8, 15, 16, 23, 42}
			a, ok := PickRandom(ids, rand.New(rand.NewSource(7)))
			So(ok, ShouldBeTrue)
			b, _ := PickRandom(ids, rand.New(rand.NewSource(7)))
			So(a, ShouldEqual, b)
			So(ids, ShouldContain, a)
		})
	})
}

func TestApplySubmission(t *testing.T) {
	Convey("Given existing stats", t, func() {
		stats := &models.UserStats{TotalSessions: 1, AverageScore: 70, TotalXp: 50, Level: 1, CurrentStreak: 4, AverageTime: 30}

		Convey("When a submission is folded in", func() {
			ApplySubmission(stats, 90, 80, testNow)

			Convey("Then the weighted average and counters move", func() {
				So(stats.AverageScore, ShouldEqual, 80)
				So(stats.TotalSessions, ShouldEqual, 2)
				So(stats.TotalXp, ShouldEqual, 130)
				So(*stats.LastActivityAt, ShouldEqual, testNow)
			})

			Convey("Then level, time and streak are untouched", func() {
				So(stats.Level, ShouldEqual, 1)
				So(stats.CurrentStreak, ShouldEqual, 4)
				So(stats.AverageTime, ShouldEqual, 30)
			})
		})
	})
}

func TestRebuildFromSessions(t *testing.T) {
	Convey("Given a session history", t, func() {
		sessions := []models.TrainingSession{
			{Precision: 85, Duration: 41, XpEarned: 600, CompletedAt: day(0, 9)},
			{Precision: 70, Duration: 30, XpEarned: 500, CompletedAt: day(-1, 9)},
		}

		Convey("All aggregates are recomputed", func() {
			stats := &models.UserStats{Level: 1}
			So(RebuildFromSessions(stats, sessions), ShouldBeTrue)
			So(stats.TotalXp, ShouldEqual, 1100)
			So(stats.TotalSessions, ShouldEqual, 2)
			So(stats.AverageScore, ShouldEqual, 78) // 77.5 rounds to even
			So(stats.AverageTime, ShouldEqual, 36)  // 35.5 rounds to even
			So(stats.Level, ShouldEqual, 2)
			So(stats.CurrentStreak, ShouldEqual, 2)
			So(*stats.LastActivityAt, ShouldEqual, day(0, 9))
		})

		Convey("Rebuilding twice gives the same result", func() {
			first := &models.UserStats{}
			second := &models.UserStats{}
			RebuildFromSessions(first, sessions)
			RebuildFromSessions(second, sessions)
			RebuildFromSessions(second, sessions)
			So(second, ShouldResemble, first)
		})

		Convey("An empty history leaves stats alone", func() {
			stats := &models.UserStats{TotalXp: 12, Level: 1}
			So(RebuildFromSessions(stats, nil), ShouldBeFalse)
			So(stats.TotalXp, ShouldEqual, 12)
		})
	})
}

func TestValidateSubmission(t *testing.T) {
	Convey("Given submitted results", t, func() {
		Convey("A well-formed result passes", func() {
			So(ValidateSubmission(models.SubmitResultRequest{Precision: 100, Score: 900, TotalImages: 10, CorrectAnswers: 10}), ShouldBeNil)
		})

		Convey("Out of range values are reported per field", func() {
			err := ValidateSubmission(models.SubmitResultRequest{Precision: 120, Score: -1, TotalImages: 3, CorrectAnswers: 5})
			So(err, ShouldNotBeNil)

			verr, ok := err.(*ValidationError)
			So(ok, ShouldBeTrue)
			So(verr.Fields, ShouldContainKey, "precision")
			So(verr.Fields, ShouldContainKey, "score")
			So(verr.Fields, ShouldContainKey, "correctAnswers")
			So(verr.Error(), ShouldStartWith, "validation failed: correctAnswers")
		})
	})
}

func TestInviteCodes(t *testing.T) {
	Convey("Invite codes", t, func() {
		Convey("Are normalized before lookup", func() {
			So(NormalizeCode("  axbr2024 "), ShouldEqual, "AXBR2024")
		})

		Convey("Are eight upper-case alphanumerics from the given source", func() {
			code := NewInviteCode(rand.New(rand.NewSource(3)))
			So(len(code), ShouldEqual, 8)
			So(code, ShouldEqual, NormalizeCode(code))
			So(NewInviteCode(rand.New(rand.NewSource(3))), ShouldEqual, code)
		})
	})
}

func TestParseStatsMode(t *testing.T) {
	Convey("Stats modes parse from configuration", t, func() {
		mode, err := ParseStatsMode("")
		So(err, ShouldBeNil)
		So(mode, ShouldEqual, StatsIncremental)

		mode, err = ParseStatsMode(" Rebuild ")
		So(err, ShouldBeNil)
		So(mode, ShouldEqual, StatsRebuild)

		_, err = ParseStatsMode("lazy")
		So(err, ShouldNotBeNil)
	})
}

func TestWeekdayKey(t *testing.T) {
	Convey("Weekday keys start on Monday", t, func() {
		So(weekdayKey(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)), ShouldEqual, "Mon")
		So(weekdayKey(testNow), ShouldEqual, "Wed")
		So(weekdayKey(time.Date(2025, time.March, 16, 12, 0, 0, 0, time.UTC)), ShouldEqual, "Sun")
	})
}
