package constants

import "time"

const (
	// Default settings values
	DefaultTimezone        = "Local" // Use system local timezone by default
	DefaultSnapshotWeekday = "monday"
	DefaultSnapshotTime    = "00:00"
	DefaultSessionTTL      = 24 * time.Hour
	DefaultShutdownGrace   = 30 * time.Second
	DefaultHealthAddr      = ""
)
