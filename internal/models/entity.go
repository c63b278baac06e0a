package models

import "time"

// Kind identifies which collection a reminder-eligible entity came from.
type Kind string

const (
	KindTask        Kind = "task"
	KindMeeting     Kind = "meeting"
	KindAppointment Kind = "appointment"
)

// Entity is the normalized reminder-relevant shape shared by tasks,
// meetings and appointments. DueAt is the due instant for tasks and
// appointments and the start instant for meetings, in Unix seconds.
type Entity struct {
	ID                 string
	Kind               Kind
	Title              string
	Description        string
	DueAt              int64
	Completed          bool
	IsRecurring        bool
	RecurrencePattern  string
	RecurrenceInterval int
	RecurrenceEndDate  *int64
	ParentID           *string

	// Meeting-specific
	MeetingLink string
	// Shared by meetings and appointments
	Location string
	// Appointment-specific
	Contact string
}

// Due returns the due/start instant as a time.Time.
func (e *Entity) Due() time.Time {
	return time.Unix(e.DueAt, 0)
}

// IsSeriesParent reports whether the entity is the template of a
// recurring series. Parents never fire reminders, only their
// materialized instances do.
func (e *Entity) IsSeriesParent() bool {
	return e.IsRecurring && e.ParentID == nil
}

// RecurrenceExpired reports whether the entity's recurrence end date
// has passed.
func (e *Entity) RecurrenceExpired(now time.Time) bool {
	if e.RecurrenceEndDate == nil {
		return false
	}
	return time.Unix(*e.RecurrenceEndDate, 0).Before(now)
}

// Task is the wire shape of a task as returned by the backend.
type Task struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	DueDate            int64   `json:"due_date"`
	Completed          bool    `json:"completed"`
	IsRecurring        bool    `json:"is_recurring"`
	RecurrencePattern  string  `json:"recurrence_pattern"`
	RecurrenceInterval int     `json:"recurrence_interval"`
	RecurrenceEndDate  *int64  `json:"recurrence_end_date"`
	ParentTaskID       *string `json:"parent_task_id"`
}

// Entity normalizes the task for reminder evaluation.
func (t *Task) Entity() Entity {
	return Entity{
		ID:                 t.ID,
		Kind:               KindTask,
		Title:              t.Title,
		Description:        t.Description,
		DueAt:              t.DueDate,
		Completed:          t.Completed,
		IsRecurring:        t.IsRecurring,
		RecurrencePattern:  t.RecurrencePattern,
		RecurrenceInterval: t.RecurrenceInterval,
		RecurrenceEndDate:  t.RecurrenceEndDate,
		ParentID:           t.ParentTaskID,
	}
}

// Meeting is the wire shape of a meeting as returned by the backend.
type Meeting struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	StartTime          int64   `json:"start_time"`
	MeetingLink        string  `json:"meeting_link"`
	Location           string  `json:"location"`
	IsRecurring        bool    `json:"is_recurring"`
	RecurrencePattern  string  `json:"recurrence_pattern"`
	RecurrenceInterval int     `json:"recurrence_interval"`
	RecurrenceEndDate  *int64  `json:"recurrence_end_date"`
	ParentMeetingID    *string `json:"parent_meeting_id"`
}

// Entity normalizes the meeting for reminder evaluation.
func (m *Meeting) Entity() Entity {
	return Entity{
		ID:                 m.ID,
		Kind:               KindMeeting,
		Title:              m.Title,
		Description:        m.Description,
		DueAt:              m.StartTime,
		IsRecurring:        m.IsRecurring,
		RecurrencePattern:  m.RecurrencePattern,
		RecurrenceInterval: m.RecurrenceInterval,
		RecurrenceEndDate:  m.RecurrenceEndDate,
		ParentID:           m.ParentMeetingID,
		MeetingLink:        m.MeetingLink,
		Location:           m.Location,
	}
}

// Appointment is the wire shape of an appointment as returned by the backend.
type Appointment struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Date                int64   `json:"date"`
	Location            string  `json:"location"`
	Contact             string  `json:"contact"`
	IsRecurring         bool    `json:"is_recurring"`
	RecurrencePattern   string  `json:"recurrence_pattern"`
	RecurrenceInterval  int     `json:"recurrence_interval"`
	RecurrenceEndDate   *int64  `json:"recurrence_end_date"`
	ParentAppointmentID *string `json:"parent_appointment_id"`
}

// Entity normalizes the appointment for reminder evaluation.
func (a *Appointment) Entity() Entity {
	return Entity{
		ID:                 a.ID,
		Kind:               KindAppointment,
		Title:              a.Title,
		Description:        a.Description,
		DueAt:              a.Date,
		IsRecurring:        a.IsRecurring,
		RecurrencePattern:  a.RecurrencePattern,
		RecurrenceInterval: a.RecurrenceInterval,
		RecurrenceEndDate:  a.RecurrenceEndDate,
		ParentID:           a.ParentAppointmentID,
		Location:           a.Location,
		Contact:            a.Contact,
	}
}
