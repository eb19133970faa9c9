package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyden-backend/internal/models"
)

func completed(startedAt time.Time, minutes int, courseID *uuid.UUID) models.StudySession {
	endedAt := startedAt.Add(time.Duration(minutes) * time.Minute)
	return models.StudySession{
		ID:                     uuid.New(),
		WorkspaceID:            uuid.New(),
		CourseID:               courseID,
		Status:                 models.SessionCompleted,
		PlannedDurationMinutes: minutes,
		DurationMinutes:        &minutes,
		StartedAt:              startedAt,
		EndedAt:                &endedAt,
	}
}

func interrupted(startedAt time.Time, minutes int) models.StudySession {
	s := completed(startedAt, minutes, nil)
	s.Status = models.SessionInterrupted
	return s
}

func TestTotalMinutes(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) // a Monday

	sessions := []models.StudySession{
		completed(base, 25, nil),
		completed(base.Add(24*time.Hour), 50, nil),
		interrupted(base.Add(2*time.Hour), 90), // not COMPLETED, never counted
		completed(base.Add(-time.Hour), 40, nil),
	}

	got := TotalMinutes(sessions, base, base.AddDate(0, 0, 7))
	assert.Equal(t, 75, got)

	// Range boundaries: from inclusive, to exclusive.
	assert.Equal(t, 25, TotalMinutes(sessions, base, base.Add(time.Minute)))
	assert.Equal(t, 0, TotalMinutes(sessions, base.Add(time.Second), base.Add(time.Minute)))
}

func TestTotalMinutes_FallsBackToPlanned(t *testing.T) {
	s := completed(time.Now(), 25, nil)
	s.DurationMinutes = nil

	got := TotalMinutes([]models.StudySession{s}, time.Time{}, time.Now().Add(time.Hour))
	assert.Equal(t, 25, got)
}

func TestStreak(t *testing.T) {
	now := time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC) // Thursday evening
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	tests := []struct {
		name     string
		sessions []models.StudySession
		want     int
	}{
		{
			name:     "no history",
			sessions: nil,
			want:     0,
		},
		{
			name:     "nothing completed today breaks the streak",
			sessions: []models.StudySession{completed(day(-1), 25, nil), completed(day(-2), 25, nil)},
			want:     0,
		},
		{
			name: "three consecutive days",
			sessions: []models.StudySession{
				completed(day(0), 25, nil),
				completed(day(-1), 25, nil),
				completed(day(-2), 25, nil),
			},
			want: 3,
		},
		{
			name: "gap ends the walk",
			sessions: []models.StudySession{
				completed(day(0), 25, nil),
				completed(day(-1), 25, nil),
				completed(day(-3), 25, nil),
			},
			want: 2,
		},
		{
			name:     "interrupted sessions do not count",
			sessions: []models.StudySession{interrupted(day(0), 25)},
			want:     0,
		},
		{
			name: "multiple sessions on one day count once",
			sessions: []models.StudySession{
				completed(day(0), 25, nil),
				completed(day(0).Add(3*time.Hour), 25, nil),
			},
			want: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Streak(tc.sessions, now))
		})
	}
}

func TestTopCourses(t *testing.T) {
	now := time.Now()
	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var sessions []models.StudySession
	// Course i gets (i+1)*10 minutes.
	for i, id := range ids {
		course := id
		sessions = append(sessions, completed(now, (i+1)*10, &course))
	}
	// Plus an unassigned session with the heaviest total.
	sessions = append(sessions, completed(now, 100, nil))

	top := TopCourses(sessions, 5)
	require.Len(t, top, 5)

	// Unassigned leads with 100 minutes and a nil course.
	assert.Nil(t, top[0].CourseID)
	assert.Equal(t, 100, top[0].Minutes)

	// Then the heaviest four courses, descending.
	require.NotNil(t, top[1].CourseID)
	assert.Equal(t, ids[5], *top[1].CourseID)
	assert.Equal(t, 60, top[1].Minutes)
	assert.Equal(t, 30, top[4].Minutes)
}

func TestTopCourses_AggregatesPerCourse(t *testing.T) {
	now := time.Now()
	courseID := uuid.New()

	sessions := []models.StudySession{
		completed(now, 25, &courseID),
		completed(now.Add(time.Hour), 50, &courseID),
		interrupted(now, 90),
	}

	top := TopCourses(sessions, DefaultTopCourses)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Sessions)
	assert.Equal(t, 75, top[0].Minutes)
}

func TestTimeOfDayBuckets(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2026, 3, 2, hour, 30, 0, 0, time.UTC)
	}

	sessions := []models.StudySession{
		completed(at(10), 25, nil), // morning
		completed(at(17), 50, nil), // evening
		completed(at(4), 30, nil),  // late night, early hours
		completed(at(23), 20, nil), // late night
		interrupted(at(9), 200),    // ignored
	}

	buckets := TimeOfDayBuckets(sessions, time.UTC)
	assert.Equal(t, BucketStat{Sessions: 1, Minutes: 25}, buckets.Morning)
	assert.Equal(t, BucketStat{}, buckets.Afternoon)
	assert.Equal(t, BucketStat{Sessions: 1, Minutes: 50}, buckets.Evening)
	assert.Equal(t, BucketStat{Sessions: 2, Minutes: 50}, buckets.LateNight)

	assert.Equal(t, "evening", buckets.FocusWindow())
}

func TestFocusWindow_EmptyHistory(t *testing.T) {
	assert.Equal(t, "", TimeOfDay{}.FocusWindow())
}

func TestCompletionRate(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC) // Thursday
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("nil when nothing planned this week", func(t *testing.T) {
		lastWeek := monday.AddDate(0, 0, -7)
		rate := CompletionRate([]models.StudySession{completed(lastWeek, 25, nil)}, now)
		assert.Nil(t, rate)
	})

	t.Run("two of three", func(t *testing.T) {
		sessions := []models.StudySession{
			completed(monday, 25, nil),
			completed(monday.Add(26*time.Hour), 25, nil),
			interrupted(monday.Add(50*time.Hour), 25),
		}
		rate := CompletionRate(sessions, now)
		require.NotNil(t, rate)
		assert.InDelta(t, 2.0/3.0, *rate, 1e-9)
	})

	t.Run("all abandoned is zero, not nil", func(t *testing.T) {
		rate := CompletionRate([]models.StudySession{interrupted(monday, 25)}, now)
		require.NotNil(t, rate)
		assert.Equal(t, 0.0, *rate)
	})
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	courseID := uuid.New()

	sessions := []models.StudySession{
		completed(monday, 25, &courseID),
		completed(monday.AddDate(0, 0, -10), 50, &courseID), // older history
	}

	s := Summarize(sessions, now)
	assert.Equal(t, 25, s.TotalMinutesWeek)
	assert.Equal(t, 75, s.TotalMinutesAll)
	require.Len(t, s.TopCourses, 1)
	assert.Equal(t, 75, s.TopCourses[0].Minutes)
	require.NotNil(t, s.CompletionRate)
	assert.Equal(t, 1.0, *s.CompletionRate)
	assert.Equal(t, "morning", s.FocusWindow)
}
