// Package api is the typed client for the task manager's REST backend.
// The backend owns the entity collections and the in-app notification
// store; this client only consumes their documented contracts.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"remindd/internal/models"
)

const requestTimeout = 10 * time.Second

// Client talks to the task manager backend.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New creates a client for the backend at the given base URL. The token
// is sent as a bearer token on every request.
func New(base, token string) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("cannot parse backend URL %q: %w", base, err)
	}
	return &Client{
		base:  u,
		http:  &http.Client{Timeout: requestTimeout},
		token: token,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cannot serialize request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := *c.base
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.New().String())
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("unexpected status from %s: %s", path, res.Status)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("cannot decode response from %s: %w", path, err)
		}
	}
	return nil
}

// GetTasks fetches the current task collection.
func (c *Client) GetTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetMeetings fetches the current meeting collection.
func (c *Client) GetMeetings(ctx context.Context) ([]models.Meeting, error) {
	var meetings []models.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/meetings", nil, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// GetAppointments fetches the current appointment collection.
func (c *Client) GetAppointments(ctx context.Context) ([]models.Appointment, error) {
	var appointments []models.Appointment
	if err := c.do(ctx, http.MethodGet, "/api/appointments", nil, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// GetUserSettings fetches the server-held notification settings.
func (c *Client) GetUserSettings(ctx context.Context) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetProfile fetches the user id and email used for email reminders.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// AppNotification is the payload for the backend's in-app notification
// store.
type AppNotification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"` // task|meeting|appointment|system|reminder
	Link    string `json:"link,omitempty"`
}

// AddNotification inserts a notification into the in-app store.
func (c *Client) AddNotification(ctx context.Context, n AppNotification) error {
	return c.do(ctx, http.MethodPost, "/api/notifications", n, nil)
}

// TaskReminderRequest asks the backend to send an email reminder for a
// task.
type TaskReminderRequest struct {
	Email     string `json:"email"`
	TaskTitle string `json:"taskTitle"`
	TaskID    string `json:"taskId"`
	DueDate   int64  `json:"dueDate"`
	UserID    string `json:"userId"`
}

// ScheduleTaskReminder requests an email reminder for a task. The call
// is fire-and-forget; success is observed only for local bookkeeping.
func (c *Client) ScheduleTaskReminder(ctx context.Context, req TaskReminderRequest) error {
	return c.do(ctx, http.MethodPost, "/api/reminders/task", req, nil)
}

// MeetingReminderRequest asks the backend to send an email reminder for
// a meeting.
type MeetingReminderRequest struct {
	Email        string `json:"email"`
	MeetingTitle string `json:"meetingTitle"`
	MeetingID    string `json:"meetingId"`
	StartTime    int64  `json:"startTime"`
	MeetingLink  string `json:"meetingLink,omitempty"`
	UserID       string `json:"userId"`
}

// ScheduleMeetingReminder requests an email reminder for a meeting.
func (c *Client) ScheduleMeetingReminder(ctx context.Context, req MeetingReminderRequest) error {
	return c.do(ctx, http.MethodPost, "/api/reminders/meeting", req, nil)
}

// AppointmentReminderRequest asks the backend to send an email reminder
// for an appointment.
type AppointmentReminderRequest struct {
	Email            string `json:"email"`
	AppointmentTitle string `json:"appointmentTitle"`
	AppointmentID    string `json:"appointmentId"`
	Date             int64  `json:"date"`
	Location         string `json:"location,omitempty"`
	UserID           string `json:"userId"`
}

// ScheduleAppointmentReminder requests an email reminder for an
// appointment.
func (c *Client) ScheduleAppointmentReminder(ctx context.Context, req AppointmentReminderRequest) error {
	return c.do(ctx, http.MethodPost, "/api/reminders/appointment", req, nil)
}
