package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Port: got %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Models.Default != DefaultModel {
		t.Errorf("Default model: got %q, want %q", cfg.Models.Default, DefaultModel)
	}
	if cfg.Session.MaxTurns != DefaultSessionMaxTurns {
		t.Errorf("MaxTurns: got %d", cfg.Session.MaxTurns)
	}
	if cfg.Render.MaxMessageLength != DefaultRenderMaxMessageLength {
		t.Errorf("MaxMessageLength: got %d", cfg.Render.MaxMessageLength)
	}
	if cfg.Tasks.ListID != DefaultTasksListID {
		t.Errorf("ListID: got %q", cfg.Tasks.ListID)
	}
	if len(cfg.Models.Registry) != 1 || cfg.Models.Registry[0].Provider != "gemini" {
		t.Errorf("Registry default: %+v", cfg.Models.Registry)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".nova")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "session:\n  max_turns: 7\nserver:\n  port: 9999\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.MaxTurns != 7 {
		t.Errorf("MaxTurns from file: got %d, want 7", cfg.Session.MaxTurns)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port from file: got %d, want 9999", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NOVA_MODELS_DEFAULT", "gpt-4o")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Models.Default != "gpt-4o" {
		t.Errorf("Default model from env: got %q, want gpt-4o", cfg.Models.Default)
	}
}

func TestLoad_StandardEnvInjection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("TELEGRAM_CHAT_ID", "123456")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Adapters.Telegram.BotToken != "bot-token" {
		t.Errorf("BotToken: got %q", cfg.Adapters.Telegram.BotToken)
	}
	if cfg.Principal.ID != "123456" {
		t.Errorf("Principal.ID: got %q", cfg.Principal.ID)
	}
	if cfg.Models.Registry[0].APIKey != "gem-key" {
		t.Errorf("Registry APIKey: got %q", cfg.Models.Registry[0].APIKey)
	}
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", "30s")
	if err != nil || d.Seconds() != 30 {
		t.Errorf("Default path: %v %v", d, err)
	}

	d, err = DurationOrDefault("2m", "30s")
	if err != nil || d.Minutes() != 2 {
		t.Errorf("Value path: %v %v", d, err)
	}

	if _, err := DurationOrDefault("bogus", "30s"); err == nil {
		t.Error("Invalid duration must error")
	}
}
