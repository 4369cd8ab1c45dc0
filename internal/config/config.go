package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	CORSOrigin string
	// Tracker upstream, reached only through the forwarding shim
	TrackerBaseURL string
	TrackerEmail   string
	TrackerToken   string
	// Default project key, used until one is saved via the config endpoint
	ProjectKey string
	// Auto-refresh cadence and the weekday hour window it is allowed in
	RefreshInterval time.Duration
	ActiveHourStart int
	ActiveHourEnd   int
	MeiliURL        string
	MeiliMasterKey  string
	RedisURL        string
}

func Load() Config {
	return Config{
		Addr:            getenv("API_ADDR", ":4000"),
		CORSOrigin:      getenv("TASKBOARD_CORS_ORIGIN", "*"),
		TrackerBaseURL:  getenv("TRACKER_BASE_URL", "https://example.atlassian.net/rest/api/3"),
		TrackerEmail:    getenv("TRACKER_EMAIL", ""),
		TrackerToken:    getenv("TRACKER_TOKEN", ""),
		ProjectKey:      getenv("TASKBOARD_PROJECT_KEY", ""),
		RefreshInterval: time.Duration(getenvInt("TASKBOARD_REFRESH_SECONDS", 600)) * time.Second,
		ActiveHourStart: getenvInt("TASKBOARD_ACTIVE_HOUR_START", 8),
		ActiveHourEnd:   getenvInt("TASKBOARD_ACTIVE_HOUR_END", 19),
		MeiliURL:        getenv("MEILI_URL", ""),
		MeiliMasterKey:  getenv("MEILI_MASTER_KEY", ""),
		RedisURL:        getenv("REDIS_URL", "redis://localhost:6379/0"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
