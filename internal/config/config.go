package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Principal PrincipalConfig `koanf:"principal"`
	Adapters  AdaptersConfig  `koanf:"adapters"`
	Models    ModelsConfig    `koanf:"models"`
	Session   SessionConfig   `koanf:"session"`
	Ingress   IngressConfig   `koanf:"ingress"`
	Render    RenderConfig    `koanf:"render"`
	Tasks     TasksConfig     `koanf:"tasks"`
	Worker    WorkerConfig    `koanf:"worker"`
	Audit     AuditConfig     `koanf:"audit"`
	Daemon    DaemonConfig    `koanf:"daemon"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

// PrincipalConfig identifies the single authorized operator. ID is the
// transport-level identifier (Telegram user id); it doubles as the
// destination for intrusion alerts. Read once at startup, immutable after.
type PrincipalConfig struct {
	ID string `koanf:"id"`
}

type AdaptersConfig struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Slack    SlackConfig    `koanf:"slack"`
}

type TelegramConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BotToken      string `koanf:"bot_token"`
	UpdateTimeout int    `koanf:"update_timeout"`
}

type SlackConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Port          int    `koanf:"port"`
	SigningSecret string `koanf:"signing_secret"`
	BotToken      string `koanf:"bot_token"`
}

type ModelsConfig struct {
	Default        string          `koanf:"default"`
	RequestTimeout string          `koanf:"request_timeout"`
	MaxToolTurns   int             `koanf:"max_tool_turns"`
	Registry       []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name     string `koanf:"name"`
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type SessionConfig struct {
	MaxTurns      int    `koanf:"max_turns"`
	IdleTTL       string `koanf:"idle_ttl"`
	SweepInterval string `koanf:"sweep_interval"`
}

type IngressConfig struct {
	QueueSize     int    `koanf:"queue_size"`
	SubmitTimeout string `koanf:"submit_timeout"`
	DedupeTTL     string `koanf:"dedupe_ttl"`
}

type RenderConfig struct {
	MaxMessageLength int `koanf:"max_message_length"`
}

type TasksConfig struct {
	BaseURL         string `koanf:"base_url"`
	ListID          string `koanf:"list_id"`
	Timeout         string `koanf:"timeout"`
	CredentialsPath string `koanf:"credentials_path"`
	TokenPath       string `koanf:"token_path"`
}

type WorkerConfig struct {
	Count           int    `koanf:"count"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type AuditConfig struct {
	JournalPath string `koanf:"journal_path"`
}

type DaemonConfig struct {
	ShutdownTimeout        string `koanf:"shutdown_timeout"`
	HealthCheckInterval    string `koanf:"health_check_interval"`
	StartupShutdownTimeout string `koanf:"startup_shutdown_timeout"`
	LockPath               string `koanf:"lock_path"`
}

const (
	DefaultServerPort            = 8080
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerWriteTimeout    = "10s"
	DefaultServerIdleTimeout     = "60s"
	DefaultServerShutdownTimeout = "5s"

	DefaultModel               = "gemini-2.5-flash"
	DefaultModelRequestTimeout = "120s"
	DefaultModelMaxToolTurns   = 8

	DefaultSessionMaxTurns      = 40
	DefaultSessionIdleTTL       = "30m"
	DefaultSessionSweepInterval = "1m"

	DefaultIngressQueueSize     = 100
	DefaultIngressSubmitTimeout = "500ms"
	DefaultIngressDedupeTTL     = "24h"

	// Telegram hard-limits messages at 4096 characters; 4000 leaves headroom
	// for the parse-mode entity overhead.
	DefaultRenderMaxMessageLength = 4000

	DefaultTasksBaseURL = "https://tasks.googleapis.com/tasks/v1"
	DefaultTasksListID  = "@default"
	DefaultTasksTimeout = "15s"

	DefaultTelegramUpdateTimeout = 60
	DefaultSlackPort             = 3000

	DefaultWorkerCount           = 4
	DefaultWorkerShutdownTimeout = "30s"

	DefaultDaemonShutdownTimeout        = "30s"
	DefaultDaemonHealthCheckInterval    = "30s"
	DefaultDaemonStartupShutdownTimeout = "10s"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".nova")

	defaults := map[string]interface{}{
		"server.port":                     DefaultServerPort,
		"server.log_level":                DefaultServerLogLevel,
		"server.read_timeout":             DefaultServerReadTimeout,
		"server.write_timeout":            DefaultServerWriteTimeout,
		"server.idle_timeout":             DefaultServerIdleTimeout,
		"server.shutdown_timeout":         DefaultServerShutdownTimeout,
		"principal.id":                    "",
		"adapters.telegram.enabled":       true,
		"adapters.telegram.update_timeout": DefaultTelegramUpdateTimeout,
		"adapters.slack.enabled":          false,
		"adapters.slack.port":             DefaultSlackPort,
		"models.default":                  DefaultModel,
		"models.request_timeout":          DefaultModelRequestTimeout,
		"models.max_tool_turns":           DefaultModelMaxToolTurns,
		"models.registry": []ModelRegistry{
			{Name: DefaultModel, Provider: "gemini"},
		},
		"session.max_turns":               DefaultSessionMaxTurns,
		"session.idle_ttl":                DefaultSessionIdleTTL,
		"session.sweep_interval":          DefaultSessionSweepInterval,
		"ingress.queue_size":              DefaultIngressQueueSize,
		"ingress.submit_timeout":          DefaultIngressSubmitTimeout,
		"ingress.dedupe_ttl":              DefaultIngressDedupeTTL,
		"render.max_message_length":       DefaultRenderMaxMessageLength,
		"tasks.base_url":                  DefaultTasksBaseURL,
		"tasks.list_id":                   DefaultTasksListID,
		"tasks.timeout":                   DefaultTasksTimeout,
		"tasks.credentials_path":          filepath.Join(dataDir, "credentials.json"),
		"tasks.token_path":                filepath.Join(dataDir, "token.json"),
		"worker.count":                    DefaultWorkerCount,
		"worker.shutdown_timeout":         DefaultWorkerShutdownTimeout,
		"audit.journal_path":              filepath.Join(dataDir, "audit", "intrusions.jsonl"),
		"daemon.shutdown_timeout":         DefaultDaemonShutdownTimeout,
		"daemon.health_check_interval":    DefaultDaemonHealthCheckInterval,
		"daemon.startup_shutdown_timeout": DefaultDaemonStartupShutdownTimeout,
		"daemon.lock_path":                filepath.Join(dataDir, "nova.lock"),
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		globalPath := filepath.Join(dataDir, "config.yaml")
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	// Environment Variables
	k.Load(env.Provider("NOVA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "NOVA_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" && cfg.Adapters.Telegram.BotToken == "" {
		cfg.Adapters.Telegram.BotToken = token
	}
	if id := os.Getenv("TELEGRAM_CHAT_ID"); id != "" && cfg.Principal.ID == "" {
		cfg.Principal.ID = id
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "gemini" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "openai" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		for i, m := range cfg.Models.Registry {
			if m.Provider == "anthropic" && m.APIKey == "" {
				cfg.Models.Registry[i].APIKey = key
			}
		}
	}

	return &cfg, nil
}
