// Package analytics computes study statistics over session history. Every
// function is pure: it takes the session list and the reference wall-clock
// time and holds no state of its own.
//
// The canonical aggregation base is COMPLETED sessions only. Interrupted
// and cancelled sessions appear in the completion-rate denominator but
// never in minute sums, streaks or course rollups.
package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"studyden-backend/internal/models"
)

const DefaultTopCourses = 5

// CourseMinutes is one row of the per-course time rollup. A nil CourseID is
// the bucket for sessions started without a course.
type CourseMinutes struct {
	CourseID *uuid.UUID `json:"course_id,omitempty"`
	Sessions int        `json:"sessions"`
	Minutes  int        `json:"minutes"`
}

type BucketStat struct {
	Sessions int `json:"sessions"`
	Minutes  int `json:"minutes"`
}

// TimeOfDay buckets completed sessions by the local hour they started:
// Morning [5,11), Afternoon [11,17), Evening [17,22), LateNight [22,5).
type TimeOfDay struct {
	Morning   BucketStat `json:"morning"`
	Afternoon BucketStat `json:"afternoon"`
	Evening   BucketStat `json:"evening"`
	LateNight BucketStat `json:"late_night"`
}

// FocusWindow names the bucket with the most minutes, or "" when there is
// no completed history yet. Ties resolve to the earlier bucket of the day.
func (t TimeOfDay) FocusWindow() string {
	best, name := 0, ""
	for _, b := range []struct {
		label string
		stat  BucketStat
	}{
		{"morning", t.Morning},
		{"afternoon", t.Afternoon},
		{"evening", t.Evening},
		{"late_night", t.LateNight},
	} {
		if b.stat.Minutes > best {
			best = b.stat.Minutes
			name = b.label
		}
	}
	return name
}

// sessionMinutes prefers the recorded actual duration and falls back to the
// planned length for legacy rows that were completed without one.
func sessionMinutes(s *models.StudySession) int {
	if s.DurationMinutes != nil {
		return *s.DurationMinutes
	}
	return s.PlannedDurationMinutes
}

// TotalMinutes sums completed study minutes over sessions started in
// [from, to).
func TotalMinutes(sessions []models.StudySession, from, to time.Time) int {
	total := 0
	for i := range sessions {
		s := &sessions[i]
		if s.Status != models.SessionCompleted {
			continue
		}
		if s.StartedAt.Before(from) || !s.StartedAt.Before(to) {
			continue
		}
		total += sessionMinutes(s)
	}
	return total
}

// Streak counts consecutive calendar days, walking backward from the day of
// now, on which at least one session was completed. Days are local
// midnight-to-midnight in now's location, not rolling 24h windows. A day
// with no completed session ends the walk, so a streak of 0 means nothing
// was completed today.
func Streak(sessions []models.StudySession, now time.Time) int {
	loc := now.Location()

	days := make(map[string]bool)
	for i := range sessions {
		s := &sessions[i]
		if s.Status != models.SessionCompleted {
			continue
		}
		days[s.StartedAt.In(loc).Format("2006-01-02")] = true
	}

	streak := 0
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// TopCourses groups completed sessions by course, sums minutes and returns
// the n heaviest groups in descending order. The sort is stable, so courses
// with equal minutes keep their first-seen order.
func TopCourses(sessions []models.StudySession, n int) []CourseMinutes {
	if n <= 0 {
		n = DefaultTopCourses
	}

	index := make(map[uuid.UUID]int)
	unassigned := -1
	var groups []CourseMinutes

	for i := range sessions {
		s := &sessions[i]
		if s.Status != models.SessionCompleted {
			continue
		}

		var at int
		if s.CourseID == nil {
			if unassigned == -1 {
				unassigned = len(groups)
				groups = append(groups, CourseMinutes{})
			}
			at = unassigned
		} else {
			pos, ok := index[*s.CourseID]
			if !ok {
				pos = len(groups)
				index[*s.CourseID] = pos
				id := *s.CourseID
				groups = append(groups, CourseMinutes{CourseID: &id})
			}
			at = pos
		}

		groups[at].Sessions++
		groups[at].Minutes += sessionMinutes(s)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Minutes > groups[j].Minutes
	})

	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// TimeOfDayBuckets classifies completed sessions by starting hour in loc.
func TimeOfDayBuckets(sessions []models.StudySession, loc *time.Location) TimeOfDay {
	if loc == nil {
		loc = time.UTC
	}

	var t TimeOfDay
	for i := range sessions {
		s := &sessions[i]
		if s.Status != models.SessionCompleted {
			continue
		}

		minutes := sessionMinutes(s)
		hour := s.StartedAt.In(loc).Hour()

		var b *BucketStat
		switch {
		case hour >= 5 && hour < 11:
			b = &t.Morning
		case hour >= 11 && hour < 17:
			b = &t.Afternoon
		case hour >= 17 && hour < 22:
			b = &t.Evening
		default:
			// 22-23 and the 0-4 early hours both belong to late night.
			b = &t.LateNight
		}
		b.Sessions++
		b.Minutes += minutes
	}
	return t
}

// CompletionRate is the fraction of this week's planned sessions that
// reached COMPLETED. The week starts Monday 00:00 in now's location. A nil
// result means no session was planned this week, which is not the same as
// a rate of zero.
func CompletionRate(sessions []models.StudySession, now time.Time) *float64 {
	from := weekStart(now)
	to := from.AddDate(0, 0, 7)

	planned, completed := 0, 0
	for i := range sessions {
		s := &sessions[i]
		if s.PlannedDurationMinutes <= 0 {
			continue
		}
		if s.StartedAt.Before(from) || !s.StartedAt.Before(to) {
			continue
		}
		planned++
		if s.Status == models.SessionCompleted {
			completed++
		}
	}

	if planned == 0 {
		return nil
	}
	rate := float64(completed) / float64(planned)
	return &rate
}

func weekStart(now time.Time) time.Time {
	loc := now.Location()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// Summary bundles the dashboard numbers computed in one pass over history.
type Summary struct {
	TotalMinutesWeek int             `json:"total_minutes_week"`
	TotalMinutesAll  int             `json:"total_minutes_all"`
	Streak           int             `json:"streak"`
	TopCourses       []CourseMinutes `json:"top_courses"`
	TimeOfDay        TimeOfDay       `json:"time_of_day"`
	FocusWindow      string          `json:"focus_window,omitempty"`
	CompletionRate   *float64        `json:"completion_rate"`
}

func Summarize(sessions []models.StudySession, now time.Time) Summary {
	buckets := TimeOfDayBuckets(sessions, now.Location())
	ws := weekStart(now)

	return Summary{
		TotalMinutesWeek: TotalMinutes(sessions, ws, ws.AddDate(0, 0, 7)),
		TotalMinutesAll:  TotalMinutes(sessions, time.Time{}, now.Add(time.Hour)),
		Streak:           Streak(sessions, now),
		TopCourses:       TopCourses(sessions, DefaultTopCourses),
		TimeOfDay:        buckets,
		FocusWindow:      buckets.FocusWindow(),
		CompletionRate:   CompletionRate(sessions, now),
	}
}
