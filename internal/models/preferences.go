package models

import "time"

// Preferences are the resolved notification preferences the reminder
// service operates on. Channel flags are recomputed on every settings
// sync; quiet hours and daily summary settings are carried across syncs.
type Preferences struct {
	TaskReminders        bool       `json:"task_reminders"`
	MeetingReminders     bool       `json:"meeting_reminders"`
	AppointmentReminders bool       `json:"appointment_reminders"`
	DesktopNotifications bool       `json:"desktop_notifications"`
	EmailNotifications   bool       `json:"email_notifications"`
	QuietStart           string     `json:"quiet_start,omitempty"` // HH:MM
	QuietEnd             string     `json:"quiet_end,omitempty"`   // HH:MM
	Timezone             string     `json:"timezone,omitempty"`
	DailySummaryEnabled  bool       `json:"daily_summary_enabled"`
	DailySummaryTime     string     `json:"daily_summary_time,omitempty"` // HH:MM
	LastDailySummaryDate *time.Time `json:"last_daily_summary_date,omitempty"`
}

// DefaultPreferences returns preferences with every channel enabled and
// no quiet hours configured.
func DefaultPreferences() Preferences {
	return Preferences{
		TaskReminders:        true,
		MeetingReminders:     true,
		AppointmentReminders: true,
		DesktopNotifications: true,
		EmailNotifications:   true,
		DailySummaryEnabled:  false,
		DailySummaryTime:     "08:00",
	}
}

// KindEnabled reports whether reminders for the given entity kind are
// enabled.
func (p *Preferences) KindEnabled(kind Kind) bool {
	switch kind {
	case KindTask:
		return p.TaskReminders
	case KindMeeting:
		return p.MeetingReminders
	case KindAppointment:
		return p.AppointmentReminders
	default:
		return false
	}
}

// IsQuietHours checks if the given time is within the configured quiet
// hours. Quiet hours spanning midnight (e.g. 22:00-08:00) are handled.
func (p *Preferences) IsQuietHours(t time.Time) bool {
	if p.QuietStart == "" || p.QuietEnd == "" {
		return false
	}

	localTime := t.In(p.location())
	currentMinutes := localTime.Hour()*60 + localTime.Minute()

	startHour, startMin := parseTimeString(p.QuietStart)
	endHour, endMin := parseTimeString(p.QuietEnd)

	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes > endMinutes {
		return currentMinutes >= startMinutes || currentMinutes < endMinutes
	}
	return currentMinutes >= startMinutes && currentMinutes < endMinutes
}

// ShouldSendDailySummary checks if the daily summary is enabled, has not
// been sent today, and the configured local time has passed.
func (p *Preferences) ShouldSendDailySummary(now time.Time) bool {
	if !p.DailySummaryEnabled {
		return false
	}

	loc := p.location()
	localNow := now.In(loc)

	if p.LastDailySummaryDate != nil {
		last := p.LastDailySummaryDate.In(loc)
		if last.Year() == localNow.Year() && last.YearDay() == localNow.YearDay() {
			return false
		}
	}

	hour, min := parseTimeString(p.DailySummaryTime)
	summaryTime := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), hour, min, 0, 0, loc)

	return !localNow.Before(summaryTime)
}

func (p *Preferences) location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil || p.Timezone == "" {
		return time.Local
	}
	return loc
}

// parseTimeString parses "HH:MM" format to hours and minutes.
func parseTimeString(timeStr string) (hour, min int) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}
