package models

// UserSettings is the server-held settings payload. Channel preferences
// stored locally are ANDed with these on every sync; the global switch
// always wins.
type UserSettings struct {
	NotificationsEnabled      bool   `json:"notifications_enabled"`
	ShowNotifications         bool   `json:"show_notifications"`
	EmailNotificationsEnabled bool   `json:"email_notifications_enabled"`
	Timezone                  string `json:"timezone"`
}

// Profile identifies the user on whose behalf email reminders are
// requested.
type Profile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
