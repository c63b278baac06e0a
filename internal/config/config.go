package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL     string
	APIToken       string
	DatabaseURI    string
	StateDir       string
	TelegramToken  string
	TelegramChatID int64
	PollInterval   time.Duration
	SoundCommand   string
	EmailDisabled  bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	interval := 2 * time.Minute
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			interval = d
		}
	}

	return &Config{
		BackendURL:     os.Getenv("BACKEND_URL"),
		APIToken:       os.Getenv("API_TOKEN"),
		DatabaseURI:    os.Getenv("DATABASE_URI"),
		StateDir:       getEnvOrDefault("STATE_DIR", defaultStateDir()),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: chatID,
		PollInterval:   interval,
		SoundCommand:   os.Getenv("SOUND_CMD"),
		EmailDisabled:  os.Getenv("EMAIL_REMINDERS") == "off",
	}, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remindd"
	}
	return home + "/.local/state/remindd"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
