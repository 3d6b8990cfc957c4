package constants

import "time"

// Durable storage keys
const (
	UsersKey       = "users"
	CurrentUserKey = "currentUser"
	PostsKey       = "posts"
	StatsKey       = "stats"
)

// Application-wide constants
const (
	// Post limits
	MaxHashtags = 5

	// Simulated latency
	SearchDelay  = 300 * time.Millisecond
	PaymentDelay = 1500 * time.Millisecond

	// Telemetry configuration
	DefaultLogBufferSize = 1000
	DefaultStatsInterval = 2 * time.Second

	// Storage configuration
	DefaultDatabaseName = "inkwell"
	HealthCheckTimeout  = 2 * time.Second

	// Presentation
	PreviewLength = 150
	TopWriters    = 10
)
