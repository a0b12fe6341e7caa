// Package config reads the bot configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Ledger sink backends.
const (
	SinkSheets = "sheets"
	SinkNotion = "notion"
)

// Config holds every setting the bot reads at startup.
type Config struct {
	DiscordToken  string
	CommandPrefix string

	GeminiAPIKey string
	GeminiModel  string

	// GoogleServiceAccount is inline JSON, a file path or a gs:// URI.
	GoogleServiceAccount string

	LedgerSink       string
	SheetID          string
	SheetName        string
	WorksheetName    string
	NotionToken      string
	NotionDatabaseID string

	PayerLabelA       string
	PayerLabelB       string
	PayerLabelUnknown string

	HTTPPort string
	APIToken string

	LogLevel  string
	LogFormat string

	WorkerCount    int
	QueueSize      int
	MessageTimeout time.Duration

	AuditProjectID string
	AuditDataset   string
	AuditTable     string
}

// ConfigurationError lists every required setting that is missing.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if len(e.Missing) > 0 {
		msg += ": missing " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("COMMAND_PREFIX", "!")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("LEDGER_SINK", SinkSheets)
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("WORKER_COUNT", 5)
	v.SetDefault("QUEUE_SIZE", 100)
	v.SetDefault("MESSAGE_TIMEOUT", 2*time.Minute)
	v.SetDefault("AUDIT_DATASET", "finance")
	v.SetDefault("AUDIT_TABLE", "extraction_runs")
}

// Load reads envFile (ignored when it does not exist) into the process environment
// and builds a Config from environment variables. Existing variables win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Load: reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v), nil
}

// FromViper builds a Config from v after applying defaults. It does not validate.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	str := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	return &Config{
		DiscordToken:         str("DISCORD_BOT_TOKEN"),
		CommandPrefix:        str("COMMAND_PREFIX"),
		GeminiAPIKey:         str("GEMINI_API_KEY"),
		GeminiModel:          str("GEMINI_MODEL"),
		GoogleServiceAccount: str("GOOGLE_SERVICE_ACCOUNT"),
		LedgerSink:           strings.ToLower(str("LEDGER_SINK")),
		SheetID:              str("GOOGLE_SHEET_ID"),
		SheetName:            str("GOOGLE_SHEET_NAME"),
		WorksheetName:        str("GOOGLE_WORKSHEET_NAME"),
		NotionToken:          str("NOTION_TOKEN"),
		NotionDatabaseID:     str("NOTION_DATABASE_ID"),
		PayerLabelA:          str("PAYER_LABEL_A"),
		PayerLabelB:          str("PAYER_LABEL_B"),
		PayerLabelUnknown:    str("PAYER_LABEL_UNKNOWN"),
		HTTPPort:             str("HTTP_PORT"),
		APIToken:             str("API_TOKEN"),
		LogLevel:             str("LOG_LEVEL"),
		LogFormat:            str("LOG_FORMAT"),
		WorkerCount:          v.GetInt("WORKER_COUNT"),
		QueueSize:            v.GetInt("QUEUE_SIZE"),
		MessageTimeout:       v.GetDuration("MESSAGE_TIMEOUT"),
		AuditProjectID:       str("AUDIT_PROJECT_ID"),
		AuditDataset:         str("AUDIT_DATASET"),
		AuditTable:           str("AUDIT_TABLE"),
	}
}

// Validate checks that every setting the bot needs for the chosen sink is present.
func (c *Config) Validate() error {
	required := map[string]string{
		"DISCORD_BOT_TOKEN": c.DiscordToken,
		"GEMINI_API_KEY":    c.GeminiAPIKey,
	}
	if c.NeedsServiceAccount() {
		required["GOOGLE_SERVICE_ACCOUNT"] = c.GoogleServiceAccount
	}
	missing := missingKeys(required)

	sinkMissing, err := c.sinkKeys()
	missing = append(missing, sinkMissing...)
	if err != nil {
		return &ConfigurationError{Missing: missing, Err: err}
	}

	if c.WorkerCount < 1 || c.QueueSize < 1 || c.MessageTimeout <= 0 {
		return &ConfigurationError{
			Missing: missing,
			Err:     fmt.Errorf("WORKER_COUNT, QUEUE_SIZE and MESSAGE_TIMEOUT must be positive"),
		}
	}

	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ValidateExtraction checks the settings a one-off extraction needs: the Gemini key,
// and the sink settings when rows are appended.
func (c *Config) ValidateExtraction(appendRows bool) error {
	missing := missingKeys(map[string]string{"GEMINI_API_KEY": c.GeminiAPIKey})

	if appendRows {
		if c.LedgerSink == SinkSheets {
			missing = append(missing, missingKeys(map[string]string{"GOOGLE_SERVICE_ACCOUNT": c.GoogleServiceAccount})...)
		}
		sinkMissing, err := c.sinkKeys()
		missing = append(missing, sinkMissing...)
		if err != nil {
			return &ConfigurationError{Missing: missing, Err: err}
		}
	}

	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// sinkKeys lists the missing settings of the configured ledger sink.
func (c *Config) sinkKeys() ([]string, error) {
	switch c.LedgerSink {
	case SinkSheets:
		missing := missingKeys(map[string]string{"GOOGLE_WORKSHEET_NAME": c.WorksheetName})
		if c.SheetID == "" && c.SheetName == "" {
			missing = append(missing, "GOOGLE_SHEET_ID|GOOGLE_SHEET_NAME")
		}
		return missing, nil
	case SinkNotion:
		return missingKeys(map[string]string{
			"NOTION_TOKEN":       c.NotionToken,
			"NOTION_DATABASE_ID": c.NotionDatabaseID,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LEDGER_SINK %q (want %s or %s)", c.LedgerSink, SinkSheets, SinkNotion)
	}
}

// missingKeys returns the keys with empty values, sorted.
func missingKeys(values map[string]string) []string {
	var missing []string
	for key, value := range values {
		if value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// AuditEnabled reports whether extraction runs are streamed to BigQuery.
func (c *Config) AuditEnabled() bool {
	return c.AuditProjectID != ""
}

// NeedsServiceAccount reports whether the Google service account is used: by the
// Sheets sink and by the BigQuery audit.
func (c *Config) NeedsServiceAccount() bool {
	return c.LedgerSink == SinkSheets || c.AuditEnabled()
}
