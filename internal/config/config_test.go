package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func baseValues() map[string]interface{} {
	return map[string]interface{}{
		"DISCORD_BOT_TOKEN":      "discord",
		"GEMINI_API_KEY":         "gemini",
		"GOOGLE_SERVICE_ACCOUNT": `{"type":"service_account"}`,
		"GOOGLE_SHEET_NAME":      "Chi tiêu",
		"GOOGLE_WORKSHEET_NAME":  "2025",
	}
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(newViper(baseValues()))

	if cfg.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q, want !", cfg.CommandPrefix)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.LedgerSink != SinkSheets {
		t.Errorf("LedgerSink = %q, want sheets", cfg.LedgerSink)
	}
	if cfg.WorkerCount != 5 || cfg.QueueSize != 100 {
		t.Errorf("WorkerCount/QueueSize = %d/%d, want 5/100", cfg.WorkerCount, cfg.QueueSize)
	}
	if cfg.MessageTimeout != 2*time.Minute {
		t.Errorf("MessageTimeout = %v, want 2m", cfg.MessageTimeout)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.AuditDataset != "finance" || cfg.AuditTable != "extraction_runs" {
		t.Errorf("audit table = %s.%s", cfg.AuditDataset, cfg.AuditTable)
	}
	if cfg.AuditEnabled() {
		t.Error("Expected audit disabled without AUDIT_PROJECT_ID")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestFromViper_Overrides(t *testing.T) {
	values := baseValues()
	values["LEDGER_SINK"] = "NOTION"
	values["MESSAGE_TIMEOUT"] = "45s"
	values["WORKER_COUNT"] = "2"
	values["AUDIT_PROJECT_ID"] = "household"

	cfg := FromViper(newViper(values))

	if cfg.LedgerSink != SinkNotion {
		t.Errorf("LedgerSink = %q, want notion", cfg.LedgerSink)
	}
	if cfg.MessageTimeout != 45*time.Second {
		t.Errorf("MessageTimeout = %v", cfg.MessageTimeout)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d", cfg.WorkerCount)
	}
	if !cfg.AuditEnabled() {
		t.Error("Expected audit enabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantMissing []string
		wantErr     bool
	}{
		{
			name:   "sheets by name",
			mutate: func(c *Config) {},
		},
		{
			name:   "sheets by id",
			mutate: func(c *Config) { c.SheetName = ""; c.SheetID = "abc" },
		},
		{
			name: "nothing set",
			mutate: func(c *Config) {
				*c = Config{LedgerSink: SinkSheets, WorkerCount: 1, QueueSize: 1, MessageTimeout: time.Second}
			},
			wantMissing: []string{"DISCORD_BOT_TOKEN", "GEMINI_API_KEY", "GOOGLE_SERVICE_ACCOUNT", "GOOGLE_WORKSHEET_NAME", "GOOGLE_SHEET_ID|GOOGLE_SHEET_NAME"},
			wantErr:     true,
		},
		{
			name: "notion missing database",
			mutate: func(c *Config) {
				c.LedgerSink = SinkNotion
				c.NotionToken = "secret"
			},
			wantMissing: []string{"NOTION_DATABASE_ID"},
			wantErr:     true,
		},
		{
			name: "notion without service account",
			mutate: func(c *Config) {
				c.LedgerSink = SinkNotion
				c.NotionToken = "secret"
				c.NotionDatabaseID = "db"
				c.GoogleServiceAccount = ""
			},
		},
		{
			name: "notion with audit needs service account",
			mutate: func(c *Config) {
				c.LedgerSink = SinkNotion
				c.NotionToken = "secret"
				c.NotionDatabaseID = "db"
				c.GoogleServiceAccount = ""
				c.AuditProjectID = "household-ledger"
			},
			wantMissing: []string{"GOOGLE_SERVICE_ACCOUNT"},
			wantErr:     true,
		},
		{
			name:    "unknown sink",
			mutate:  func(c *Config) { c.LedgerSink = "excel" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.WorkerCount = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromViper(newViper(baseValues()))
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigurationError, got %T", err)
			}
			if tt.wantMissing != nil && !reflect.DeepEqual(ce.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", ce.Missing, tt.wantMissing)
			}
		})
	}
}

func TestValidateExtraction(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		appendRows  bool
		wantMissing []string
		wantErr     bool
	}{
		{
			name: "dry run needs only the gemini key",
			cfg:  Config{GeminiAPIKey: "key"},
		},
		{
			name:        "dry run without key",
			cfg:         Config{},
			wantMissing: []string{"GEMINI_API_KEY"},
			wantErr:     true,
		},
		{
			name:        "append to sheets",
			cfg:         Config{GeminiAPIKey: "key", LedgerSink: SinkSheets, WorksheetName: "Sheet1"},
			appendRows:  true,
			wantMissing: []string{"GOOGLE_SERVICE_ACCOUNT", "GOOGLE_SHEET_ID|GOOGLE_SHEET_NAME"},
			wantErr:     true,
		},
		{
			name:       "append to notion",
			cfg:        Config{GeminiAPIKey: "key", LedgerSink: SinkNotion, NotionToken: "t", NotionDatabaseID: "db"},
			appendRows: true,
		},
		{
			name:       "append to unknown sink",
			cfg:        Config{GeminiAPIKey: "key", LedgerSink: "excel"},
			appendRows: true,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateExtraction(tt.appendRows)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateExtraction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantMissing == nil {
				return
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigurationError, got %T", err)
			}
			if !reflect.DeepEqual(ce.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", ce.Missing, tt.wantMissing)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "DISCORD_BOT_TOKEN=from-file\nGOOGLE_WORKSHEET_NAME=Sheet1\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// Process environment wins over the file.
	t.Setenv("GOOGLE_WORKSHEET_NAME", "from-env")
	t.Setenv("DISCORD_BOT_TOKEN", "")
	os.Unsetenv("DISCORD_BOT_TOKEN")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DiscordToken != "from-file" {
		t.Errorf("DiscordToken = %q, want from-file", cfg.DiscordToken)
	}
	if cfg.WorksheetName != "from-env" {
		t.Errorf("WorksheetName = %q, want from-env", cfg.WorksheetName)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load() error = %v, want nil for missing file", err)
	}
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"A", "B"}}
	if got := err.Error(); got != "configuration error: missing A, B" {
		t.Errorf("Error() = %q", got)
	}
}
