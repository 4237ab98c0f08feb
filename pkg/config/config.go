// Package config assembles the client options from defaults, an optional
// .env file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Reporting defaults. The hour window is configuration, not business
// logic: calls outside it are never reported.
const (
	DefaultStartHour         = 8
	DefaultEndHour           = 21
	DefaultMaxLogCount       = 100
	DefaultReconcileInterval = 15 * time.Second
	DefaultServerURL         = "https://tracklog.live"
)

type Options struct {
	ServerURL      string
	SyncWithServer bool

	DataDir      string
	DatabasePath string
	CallLogPath  string
	ContactsPath string
	SyncInfoPath string
	LogPath      string

	DialCommand string
	SecretKey   string

	MaxLogCount       int
	StartHour         int
	EndHour           int
	ReconcileInterval time.Duration
}

// NewConfig builds the options. A .env file in the working directory is
// loaded first so development setups can keep overrides out of the shell.
func NewConfig() (*Options, error) {
	_ = godotenv.Load()

	opt := &Options{
		ServerURL:         DefaultServerURL,
		SyncWithServer:    true,
		DialCommand:       "",
		SecretKey:         "tracklog-local",
		MaxLogCount:       DefaultMaxLogCount,
		StartHour:         DefaultStartHour,
		EndHour:           DefaultEndHour,
		ReconcileInterval: DefaultReconcileInterval,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	opt.DataDir = filepath.Join(home, ".tracklog")

	// Check if corresponding environment variables are set and override the values if present.
	if v, exists := os.LookupEnv("TRACKLOG_SERVER_URL"); exists {
		opt.ServerURL = v
	}
	if v, exists := os.LookupEnv("TRACKLOG_SYNC_WITH_SERVER"); exists {
		if value, err := strconv.ParseBool(v); err == nil {
			opt.SyncWithServer = value
		}
	}
	if v, exists := os.LookupEnv("TRACKLOG_DATA_DIR"); exists {
		opt.DataDir = v
	}
	if v, exists := os.LookupEnv("TRACKLOG_DIAL_COMMAND"); exists {
		opt.DialCommand = v
	}
	if v, exists := os.LookupEnv("TRACKLOG_SECRET_KEY"); exists {
		opt.SecretKey = v
	}
	if v, exists := os.LookupEnv("TRACKLOG_MAX_LOG_COUNT"); exists {
		if value, err := strconv.Atoi(v); err == nil {
			opt.MaxLogCount = value
		}
	}
	if v, exists := os.LookupEnv("TRACKLOG_START_HOUR"); exists {
		if value, err := strconv.Atoi(v); err == nil {
			opt.StartHour = value
		}
	}
	if v, exists := os.LookupEnv("TRACKLOG_END_HOUR"); exists {
		if value, err := strconv.Atoi(v); err == nil {
			opt.EndHour = value
		}
	}
	if v, exists := os.LookupEnv("TRACKLOG_RECONCILE_INTERVAL"); exists {
		if value, err := time.ParseDuration(v); err == nil {
			opt.ReconcileInterval = value
		}
	}

	if err := os.MkdirAll(opt.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	opt.DatabasePath = filepath.Join(opt.DataDir, "tracklog.db")
	opt.CallLogPath = filepath.Join(opt.DataDir, "calllog.json")
	opt.ContactsPath = filepath.Join(opt.DataDir, "contacts.json")
	opt.SyncInfoPath = filepath.Join(opt.DataDir, "syncinfo.dat")
	opt.LogPath = filepath.Join(opt.DataDir, "log.txt")

	if v, exists := os.LookupEnv("TRACKLOG_CALL_LOG_PATH"); exists {
		opt.CallLogPath = v
	}
	if v, exists := os.LookupEnv("TRACKLOG_CONTACTS_PATH"); exists {
		opt.ContactsPath = v
	}

	return opt, nil
}
