package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindd/internal/models"
	"remindd/internal/store"
)

type fakeBackend struct {
	fakeScheduler
	tasks        []models.Task
	meetings     []models.Meeting
	appointments []models.Appointment
	settings     *models.UserSettings
	profile      *models.Profile
}

func (f *fakeBackend) GetTasks(ctx context.Context) ([]models.Task, error) {
	return f.tasks, nil
}

func (f *fakeBackend) GetMeetings(ctx context.Context) ([]models.Meeting, error) {
	return f.meetings, nil
}

func (f *fakeBackend) GetAppointments(ctx context.Context) ([]models.Appointment, error) {
	return f.appointments, nil
}

func (f *fakeBackend) GetUserSettings(ctx context.Context) (*models.UserSettings, error) {
	return f.settings, nil
}

func (f *fakeBackend) GetProfile(ctx context.Context) (*models.Profile, error) {
	return f.profile, nil
}

type serviceHarness struct {
	svc     *Service
	backend *fakeBackend
	store   *store.Memory
	inApp   *fakeSink
	clock   time.Time
}

func newHarness(t *testing.T) *serviceHarness {
	t.Helper()
	h := &serviceHarness{
		backend: &fakeBackend{
			settings: testSettings,
			profile:  testProfile,
		},
		store: store.NewMemory(),
		inApp: &fakeSink{name: "in-app"},
		clock: baseTime,
	}
	now := func() time.Time { return h.clock }
	h.store.SetClock(now)

	dispatcher := NewDispatcher(h.inApp, nil, nil, nil)
	dispatcher.now = now

	h.svc = New(h.backend, h.store, dispatcher, Options{})
	h.svc.now = now
	h.svc.email.now = now
	return h
}

func (h *serviceHarness) tick(t *testing.T) {
	t.Helper()
	h.svc.tick(context.Background())
}

func TestTickFiresOnceAndEscalatesEmail(t *testing.T) {
	h := newHarness(t)
	h.backend.tasks = []models.Task{{
		ID:      "task-1",
		Title:   "File taxes",
		DueDate: baseTime.Add(24 * time.Hour).Unix(),
	}}

	h.tick(t)
	require.Len(t, h.inApp.sent, 1)
	assert.Equal(t, "Task reminder", h.inApp.sent[0].Title)
	require.Len(t, h.backend.taskReqs, 1)

	// One minute later, same due date: nothing fires again.
	h.clock = baseTime.Add(time.Minute)
	h.tick(t)
	assert.Len(t, h.inApp.sent, 1)
	assert.Len(t, h.backend.taskReqs, 1)
}

func TestTickEditedMeetingRefiresImmediately(t *testing.T) {
	h := newHarness(t)
	h.backend.meetings = []models.Meeting{{
		ID:        "mtg-1",
		Title:     "Standup",
		StartTime: baseTime.Add(2 * time.Hour).Unix(),
	}}

	// Two hours out matches no time point and no email window.
	h.tick(t)
	assert.Empty(t, h.inApp.sent)
	assert.Empty(t, h.backend.meetingReqs)

	// The meeting is moved to thirty minutes out between cycles. The
	// next tick must treat THIRTY_MIN as unfired and may fire at once,
	// and the edit bypass lets the email through.
	h.clock = baseTime.Add(2 * time.Minute)
	h.backend.meetings[0].StartTime = h.clock.Add(28 * time.Minute).Unix()

	h.tick(t)
	require.Len(t, h.inApp.sent, 1)
	assert.Contains(t, h.inApp.sent[0].Body, "Standup")
	assert.Len(t, h.backend.meetingReqs, 1)
}

func TestTickEditClearsBothLedgers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.backend.tasks = []models.Task{{
		ID:      "task-1",
		Title:   "File taxes",
		DueDate: baseTime.Add(24 * time.Hour).Unix(),
	}}

	h.tick(t)
	require.Len(t, h.inApp.sent, 1)
	_, err := h.store.EmailRecord(ctx, "task-1")
	require.NoError(t, err)

	// Pushing the due date out clears both records so the sequence can
	// restart from ONE_DAY.
	h.clock = baseTime.Add(2 * time.Minute)
	h.backend.tasks[0].DueDate = h.clock.Add(24 * time.Hour).Unix()
	h.tick(t)

	_, err = h.store.EmailRecord(ctx, "task-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.Len(t, h.inApp.sent, 2)
	require.Len(t, h.backend.taskReqs, 2)
}

func TestTickGlobalDisableSuppressesAllChannels(t *testing.T) {
	h := newHarness(t)
	h.backend.settings = &models.UserSettings{
		NotificationsEnabled:      false,
		ShowNotifications:         true,
		EmailNotificationsEnabled: true,
	}
	h.backend.tasks = []models.Task{{
		ID:      "task-1",
		Title:   "File taxes",
		DueDate: baseTime.Add(24 * time.Hour).Unix(),
	}}

	h.tick(t)
	assert.Empty(t, h.inApp.sent)
	assert.Empty(t, h.backend.taskReqs)
}

func TestTickSeriesParentNeverFires(t *testing.T) {
	h := newHarness(t)
	parentID := "task-parent"
	h.backend.tasks = []models.Task{
		{
			ID:                "task-parent",
			Title:             "Water plants",
			DueDate:           baseTime.Add(time.Hour).Unix(),
			IsRecurring:       true,
			RecurrencePattern: "daily",
		},
		{
			ID:                "task-parent:1",
			Title:             "Water plants",
			DueDate:           baseTime.Add(time.Hour).Unix(),
			IsRecurring:       true,
			RecurrencePattern: "daily",
			ParentTaskID:      &parentID,
		},
	}

	h.tick(t)
	// Only the instance fires; the duplicate-message guard does not
	// apply because the parent produced nothing.
	require.Len(t, h.inApp.sent, 1)

	records, err := h.store.NotificationRecords(context.Background())
	require.NoError(t, err)
	assert.Contains(t, records, "task-parent:1")
	assert.NotContains(t, records, "task-parent")
}

func TestTickIdenticalMessagesDeduplicated(t *testing.T) {
	h := newHarness(t)
	// Two distinct tasks that render to the same human-visible message.
	h.backend.tasks = []models.Task{
		{ID: "task-1", Title: "File taxes", DueDate: baseTime.Add(time.Hour).Unix()},
		{ID: "task-2", Title: "File taxes", DueDate: baseTime.Add(time.Hour).Unix()},
	}

	h.tick(t)
	assert.Len(t, h.inApp.sent, 1)
}

func TestTickEmailDisabledVariant(t *testing.T) {
	h := newHarness(t)
	h.svc.emailEnabled = false
	h.backend.tasks = []models.Task{{
		ID:      "task-1",
		Title:   "File taxes",
		DueDate: baseTime.Add(24 * time.Hour).Unix(),
	}}

	h.tick(t)
	require.Len(t, h.inApp.sent, 1)
	assert.Empty(t, h.backend.taskReqs)
}

func TestTickKindOptOutSkipsDispatchButNotEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	stored := models.DefaultPreferences()
	stored.TaskReminders = false
	require.NoError(t, h.store.PutPreferences(ctx, stored))

	h.backend.tasks = []models.Task{{
		ID:      "task-1",
		Title:   "File taxes",
		DueDate: baseTime.Add(24 * time.Hour).Unix(),
	}}

	h.tick(t)
	assert.Empty(t, h.inApp.sent)
	// The email gate is independent of the in-app channel choice.
	assert.Len(t, h.backend.taskReqs, 1)
}

func TestTickDailySummary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	stored := models.DefaultPreferences()
	stored.DailySummaryEnabled = true
	stored.DailySummaryTime = "08:00"
	stored.Timezone = "UTC"
	require.NoError(t, h.store.PutPreferences(ctx, stored))

	h.backend.meetings = []models.Meeting{{
		ID:        "mtg-1",
		Title:     "Standup",
		StartTime: baseTime.Add(5 * time.Hour).Unix(),
	}}

	h.tick(t)
	require.Len(t, h.inApp.sent, 1)
	assert.Equal(t, "Today's agenda", h.inApp.sent[0].Title)
	assert.Contains(t, h.inApp.sent[0].Body, "Standup")

	// Sent at most once per day.
	h.clock = baseTime.Add(10 * time.Minute)
	h.tick(t)
	assert.Len(t, h.inApp.sent, 1)
}

func TestTickEmailCleanupRunsWeekly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	stale := models.EmailRecord{Sent: true, Timestamp: baseTime.Add(-8 * 24 * time.Hour).Unix()}
	require.NoError(t, h.store.PutEmailRecord(ctx, "task-old", stale))

	// The first pass prunes anything older than the retention window.
	h.tick(t)
	_, err := h.store.EmailRecord(ctx, "task-old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A record going stale between passes survives until a week has gone
	// by since the last cleanup.
	require.NoError(t, h.store.PutEmailRecord(ctx, "task-old-2", stale))
	h.clock = baseTime.Add(24 * time.Hour)
	h.tick(t)
	_, err = h.store.EmailRecord(ctx, "task-old-2")
	assert.NoError(t, err)

	h.clock = baseTime.Add(7*24*time.Hour + time.Minute)
	h.tick(t)
	_, err = h.store.EmailRecord(ctx, "task-old-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
