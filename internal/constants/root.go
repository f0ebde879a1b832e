package constants

import "time"

const (
	AppName            = "fitbot"
	DefaultKeyringUser = "telegram-token"
	DefaultConfigPath  = "~/.config/fitbot/fitbot.db"
	Version            = "v0.3.0"

	// DateFormat is the calendar-day format stored in weight_history (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the time-of-day format used for the snapshot boundary (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "fitbot-"
	BackupFileSuffix = ".db"

	// Instance lock
	LockfileName = "fitbot.lock"

	// Store backends selected by the --db prefix
	MemoryDSN = "memory://"

	// Weight sources recorded in weight_history.source
	SourceLog      = "log"
	SourceSnapshot = "snapshot"

	// Session keys in redis
	SessionKeyPrefix = "fitbot:session:"

	// Polling
	PollTimeoutSec = 30
	SendRetries    = 3
	SendRetryDelay = 500 * time.Millisecond
)
