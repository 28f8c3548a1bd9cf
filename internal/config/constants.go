package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Partner search retry policy. Backoff doubles per attempt and is capped.
const (
	SearchBackoffInitial = 2 * time.Second
	SearchBackoffMax     = 10 * time.Second
)

// Rate limit windows per action kind.
const (
	ConnectWindow      = time.Minute
	MessageWindow      = time.Minute
	SkipWindow         = time.Minute
	ReportWindow       = time.Hour
	SessionStartWindow = time.Minute
)

// Participant auth token lifetime.
const TokenTTL = 12 * time.Hour
