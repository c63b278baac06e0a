package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"remindd/internal/models"
	"remindd/internal/notify"
	"remindd/internal/store"
)

const (
	defaultInterval = 2 * time.Minute
	// editBypassTTL is how long an entity keeps its "recently edited"
	// flag after its due instant changed.
	editBypassTTL = 5 * time.Minute
	// emailCleanupEvery and emailRetention drive the bulk cleanup pass
	// over the email ledger.
	emailCleanupEvery = 7 * 24 * time.Hour
	emailRetention    = 7 * 24 * time.Hour
)

// Backend is the REST surface the service consumes. *api.Client
// satisfies it.
type Backend interface {
	GetTasks(ctx context.Context) ([]models.Task, error)
	GetMeetings(ctx context.Context) ([]models.Meeting, error)
	GetAppointments(ctx context.Context) ([]models.Appointment, error)
	GetUserSettings(ctx context.Context) (*models.UserSettings, error)
	GetProfile(ctx context.Context) (*models.Profile, error)
	EmailScheduler
}

// Options configure a Service. The zero value enables email escalation
// and the default two-minute polling interval.
type Options struct {
	// EmailDisabled turns the email escalation gate off; in-app and
	// desktop channels are unaffected.
	EmailDisabled bool
	Interval      time.Duration
}

// Service is the reminder engine's control loop. It owns one timer and
// re-evaluates on every tick and on every DataChanged trigger; only one
// evaluation pass runs at a time.
type Service struct {
	backend    Backend
	store      store.Store
	ledger     *Ledger
	watcher    *Watcher
	resolver   *Resolver
	email      *EmailGate
	dispatcher *Dispatcher

	emailEnabled bool
	interval     time.Duration
	notifyCh     chan struct{}

	recentlyEdited map[string]time.Time
	lastCleanup    time.Time
	now            func() time.Time
}

// New wires up a Service from its collaborators.
func New(backend Backend, st store.Store, dispatcher *Dispatcher, opts Options) *Service {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		backend:        backend,
		store:          st,
		ledger:         NewLedger(st),
		watcher:        NewWatcher(),
		resolver:       NewResolver(st),
		email:          NewEmailGate(st, backend),
		dispatcher:     dispatcher,
		emailEnabled:   !opts.EmailDisabled,
		interval:       interval,
		notifyCh:       make(chan struct{}, 1),
		recentlyEdited: make(map[string]time.Time),
		now:            time.Now,
	}
}

// Notify triggers an immediate evaluation pass. Non-blocking if one is
// already pending.
func (s *Service) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start runs the control loop until the context is canceled. The ledger
// is rehydrated before the first evaluation.
func (s *Service) Start(ctx context.Context) {
	log.Println("Reminder service started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.ledger.Load(ctx); err != nil {
		log.Printf("Failed to load notification ledger, retrying on next tick: %v", err)
	}

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder service stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		case <-s.notifyCh:
			log.Println("Reminder service triggered by data change")
			s.tick(ctx)
		}
	}
}

// tick runs one full evaluation pass: fetch, resolve preferences,
// invalidate edits, evaluate every entity, and run the periodic
// housekeeping. Failures are isolated per entity and per channel.
func (s *Service) tick(ctx context.Context) {
	now := s.now()

	if !s.ledger.initialized {
		if err := s.ledger.Load(ctx); err != nil {
			log.Printf("Failed to load notification ledger: %v", err)
			return
		}
	}

	settings, err := s.backend.GetUserSettings(ctx)
	if err != nil {
		log.Printf("Failed to fetch user settings: %v", err)
		settings = nil
	}

	profile, err := s.backend.GetProfile(ctx)
	if err != nil {
		log.Printf("Failed to fetch user profile: %v", err)
		profile = nil
	}

	prefs := s.resolver.Resolve(ctx, settings)

	entities := s.fetchEntities(ctx)

	for _, id := range s.watcher.Changed(entities) {
		s.ledger.Invalidate(ctx, id)
		if err := s.store.DeleteEmailRecord(ctx, id); err != nil {
			log.Printf("Failed to delete email record for edited entity %s: %v", id, err)
		}
		s.recentlyEdited[id] = now
	}
	for id, at := range s.recentlyEdited {
		if now.Sub(at) > editBypassTTL {
			delete(s.recentlyEdited, id)
		}
	}

	for i := range entities {
		e := &entities[i]
		if !Eligible(e, now) {
			continue
		}

		_, edited := s.recentlyEdited[e.ID]

		if s.emailEnabled {
			s.email.Send(ctx, e, profile, settings, prefs, edited)
		}

		if !prefs.KindEnabled(e.Kind) {
			continue
		}

		if _, fire := s.ledger.ShouldNotify(ctx, e.ID, now, e.Due()); !fire {
			continue
		}

		msg := BuildMessage(e, now)
		if s.ledger.SuppressDuplicate(msg.Type, msg.Title, msg.Body, now) {
			continue
		}
		s.dispatcher.Dispatch(ctx, msg, prefs)
	}

	s.sendDailySummary(ctx, entities, prefs, now)
	s.cleanupEmailRecords(ctx, now)
}

// fetchEntities pulls all three collections, normalizes them, and keeps
// going when an individual collection fails.
func (s *Service) fetchEntities(ctx context.Context) []models.Entity {
	var entities []models.Entity

	tasks, err := s.backend.GetTasks(ctx)
	if err != nil {
		log.Printf("Failed to fetch tasks: %v", err)
	}
	for i := range tasks {
		entities = append(entities, tasks[i].Entity())
	}

	meetings, err := s.backend.GetMeetings(ctx)
	if err != nil {
		log.Printf("Failed to fetch meetings: %v", err)
	}
	for i := range meetings {
		entities = append(entities, meetings[i].Entity())
	}

	appointments, err := s.backend.GetAppointments(ctx)
	if err != nil {
		log.Printf("Failed to fetch appointments: %v", err)
	}
	for i := range appointments {
		entities = append(entities, appointments[i].Entity())
	}

	return entities
}

// sendDailySummary dispatches a single combined digest of today's
// meetings and appointments plus due-soon tasks, at most once per day
// after the configured local time.
func (s *Service) sendDailySummary(ctx context.Context, entities []models.Entity, prefs models.Preferences, now time.Time) {
	if !prefs.ShouldSendDailySummary(now) {
		return
	}

	body := buildDailySummary(entities, now)
	s.dispatcher.Dispatch(ctx, notify.Message{
		Title: "Today's agenda",
		Body:  body,
		Type:  "system",
	}, prefs)

	prefs.LastDailySummaryDate = &now
	if err := s.store.PutPreferences(ctx, prefs); err != nil {
		log.Printf("Failed to record daily summary date: %v", err)
	}
}

func buildDailySummary(entities []models.Entity, now time.Time) string {
	endOfDay := now.Add(24 * time.Hour)

	var schedule, tasks string
	for i := range entities {
		e := &entities[i]
		if e.IsSeriesParent() || e.Completed {
			continue
		}
		due := e.Due()
		if due.Before(now) || due.After(endOfDay) {
			continue
		}

		line := fmt.Sprintf("- %s %s\n", due.Format("15:04"), e.Title)
		if e.Kind == models.KindTask {
			tasks += line
		} else {
			schedule += line
		}
	}

	if schedule == "" {
		schedule = "- nothing scheduled\n"
	}
	if tasks == "" {
		tasks = "- no tasks due\n"
	}

	return "Schedule:\n" + schedule + "\nTasks due today:\n" + tasks
}

// cleanupEmailRecords prunes old email records once a week.
func (s *Service) cleanupEmailRecords(ctx context.Context, now time.Time) {
	if !s.lastCleanup.IsZero() && now.Sub(s.lastCleanup) < emailCleanupEvery {
		return
	}
	s.lastCleanup = now

	pruned, err := s.store.PruneEmailRecords(ctx, now.Add(-emailRetention))
	if err != nil {
		log.Printf("Failed to prune email records: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("Pruned %d stale email records", pruned)
	}
}
