package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindd/internal/api"
	"remindd/internal/models"
	"remindd/internal/store"
)

type fakeScheduler struct {
	taskReqs    []api.TaskReminderRequest
	meetingReqs []api.MeetingReminderRequest
	apptReqs    []api.AppointmentReminderRequest
	err         error
}

func (f *fakeScheduler) ScheduleTaskReminder(ctx context.Context, req api.TaskReminderRequest) error {
	f.taskReqs = append(f.taskReqs, req)
	return f.err
}

func (f *fakeScheduler) ScheduleMeetingReminder(ctx context.Context, req api.MeetingReminderRequest) error {
	f.meetingReqs = append(f.meetingReqs, req)
	return f.err
}

func (f *fakeScheduler) ScheduleAppointmentReminder(ctx context.Context, req api.AppointmentReminderRequest) error {
	f.apptReqs = append(f.apptReqs, req)
	return f.err
}

func (f *fakeScheduler) calls() int {
	return len(f.taskReqs) + len(f.meetingReqs) + len(f.apptReqs)
}

var (
	testProfile  = &models.Profile{UserID: "u1", Email: "u1@example.com"}
	testSettings = &models.UserSettings{
		NotificationsEnabled:      true,
		ShowNotifications:         true,
		EmailNotificationsEnabled: true,
	}
)

func emailPrefs() models.Preferences {
	return models.DefaultPreferences()
}

func newGate(t *testing.T, now time.Time) (*EmailGate, *fakeScheduler, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	st.SetClock(func() time.Time { return now })
	sched := &fakeScheduler{}
	g := NewEmailGate(st, sched)
	g.now = func() time.Time { return now }
	return g, sched, st
}

func taskDueIn(lead time.Duration) models.Entity {
	return models.Entity{
		ID:    "task-1",
		Kind:  models.KindTask,
		Title: "File taxes",
		DueAt: baseTime.Add(lead).Unix(),
	}
}

func TestEmailFiresInsideWindow(t *testing.T) {
	ctx := context.Background()
	g, sched, st := newGate(t, baseTime)

	e := taskDueIn(24 * time.Hour)
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)

	require.Len(t, sched.taskReqs, 1)
	req := sched.taskReqs[0]
	assert.Equal(t, "u1@example.com", req.Email)
	assert.Equal(t, "task-1", req.TaskID)
	assert.Equal(t, e.DueAt, req.DueDate)

	rec, err := st.EmailRecord(ctx, "task-1")
	require.NoError(t, err)
	assert.True(t, rec.Sent)
	assert.Equal(t, baseTime.Unix(), rec.Timestamp)
}

func TestEmailOutsideWindow(t *testing.T) {
	ctx := context.Background()

	for _, lead := range []time.Duration{
		24*time.Hour + 4*time.Minute,
		24*time.Hour - 4*time.Minute,
		12 * time.Hour,
		time.Hour,
	} {
		g, sched, _ := newGate(t, baseTime)
		e := taskDueIn(lead)
		g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)
		assert.Zerof(t, sched.calls(), "lead %s should not fire", lead)
	}
}

func TestEmailMeetingUsesOneHourLead(t *testing.T) {
	ctx := context.Background()
	g, sched, _ := newGate(t, baseTime)

	e := models.Entity{
		ID:          "mtg-1",
		Kind:        models.KindMeeting,
		Title:       "Standup",
		DueAt:       baseTime.Add(time.Hour).Unix(),
		MeetingLink: "https://meet.example.com/xyz",
	}
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)

	require.Len(t, sched.meetingReqs, 1)
	assert.Equal(t, "https://meet.example.com/xyz", sched.meetingReqs[0].MeetingLink)
}

func TestEmailRecentEditBypassesWindow(t *testing.T) {
	ctx := context.Background()
	g, sched, _ := newGate(t, baseTime)

	// 5 hours out is nowhere near the 24h window, but the entity was
	// just edited into the threshold.
	e := taskDueIn(5 * time.Hour)
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), true)

	assert.Equal(t, 1, sched.calls())
}

func TestEmailCooldownSuppressesResend(t *testing.T) {
	ctx := context.Background()
	g, sched, st := newGate(t, baseTime)

	require.NoError(t, st.PutEmailRecord(ctx, "task-1", models.EmailRecord{
		Sent:      true,
		Timestamp: baseTime.Add(-22 * time.Hour).Unix(),
	}))

	e := taskDueIn(24 * time.Hour)
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)
	assert.Zero(t, sched.calls())

	// Past the 23-hour cooldown the same entity may email again.
	require.NoError(t, st.PutEmailRecord(ctx, "task-1", models.EmailRecord{
		Sent:      true,
		Timestamp: baseTime.Add(-24 * time.Hour).Unix(),
	}))
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)
	assert.Equal(t, 1, sched.calls())
}

func TestEmailAttemptGuard(t *testing.T) {
	ctx := context.Background()
	g, sched, st := newGate(t, baseTime)

	// A failed attempt five minutes ago blocks any retry inside the
	// ten-minute guard, even though sent is false.
	require.NoError(t, st.PutEmailRecord(ctx, "task-1", models.EmailRecord{
		Sent:      false,
		Timestamp: baseTime.Add(-5 * time.Minute).Unix(),
	}))

	e := taskDueIn(24 * time.Hour)
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)
	assert.Zero(t, sched.calls())
}

func TestEmailIdempotencyKeyBlocksSameMinute(t *testing.T) {
	ctx := context.Background()
	g, sched, st := newGate(t, baseTime)
	sched.err = errors.New("backend down")

	e := taskDueIn(24 * time.Hour)
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)
	require.Equal(t, 1, sched.calls())

	// The failure rolled the record back, but the per-minute key still
	// blocks a second attempt in the same evaluation minute.
	rec, err := st.EmailRecord(ctx, "task-1")
	require.NoError(t, err)
	assert.False(t, rec.Sent)

	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)
	assert.Equal(t, 1, sched.calls())
}

func TestEmailRollbackOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	g, sched, st := newGate(t, baseTime)
	sched.err = errors.New("backend down")

	e := taskDueIn(24 * time.Hour)
	g.Send(ctx, &e, testProfile, testSettings, emailPrefs(), false)

	rec, err := st.EmailRecord(ctx, "task-1")
	require.NoError(t, err)
	assert.False(t, rec.Sent)
	assert.Equal(t, baseTime.Unix(), rec.Timestamp)
}

func TestEmailSettingsGate(t *testing.T) {
	ctx := context.Background()
	e := taskDueIn(24 * time.Hour)

	cases := []struct {
		name     string
		settings *models.UserSettings
		prefs    models.Preferences
	}{
		{"nil settings", nil, emailPrefs()},
		{"email disabled", &models.UserSettings{NotificationsEnabled: true}, emailPrefs()},
		{"global disabled", &models.UserSettings{EmailNotificationsEnabled: true}, emailPrefs()},
		{"local opt-out", testSettings, models.Preferences{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, sched, _ := newGate(t, baseTime)
			g.Send(ctx, &e, testProfile, tc.settings, tc.prefs, false)
			assert.Zero(t, sched.calls())
		})
	}
}

func TestEmailRequiresProfile(t *testing.T) {
	ctx := context.Background()
	e := taskDueIn(24 * time.Hour)

	for _, profile := range []*models.Profile{
		nil,
		{Email: "u1@example.com"},
		{UserID: "u1"},
	} {
		g, sched, _ := newGate(t, baseTime)
		g.Send(ctx, &e, profile, testSettings, emailPrefs(), false)
		assert.Zero(t, sched.calls())
	}
}
