package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Chat.WindowSize != 50 {
		t.Errorf("WindowSize = %d, want 50", cfg.Chat.WindowSize)
	}
	if cfg.Chat.EphemeralWindow != 10*time.Second {
		t.Errorf("EphemeralWindow = %v, want 10s", cfg.Chat.EphemeralWindow)
	}
	if cfg.Chat.MaxAttachmentBytes != 5*1024*1024 {
		t.Errorf("MaxAttachmentBytes = %d, want 5 MiB", cfg.Chat.MaxAttachmentBytes)
	}
	if cfg.Chat.RemoteBackend {
		t.Error("RemoteBackend defaults to true, want false")
	}
	if cfg.Net.AnonSuffix != ".onion" {
		t.Errorf("AnonSuffix = %q, want .onion", cfg.Net.AnonSuffix)
	}
	if cfg.Service.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Service.Addr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHAT_WINDOW_SIZE", "10")
	t.Setenv("CHAT_EPHEMERAL_WINDOW", "3s")
	t.Setenv("CHAT_REMOTE_BACKEND", "true")
	t.Setenv("SERVICE_HOST", "abcdef.onion")
	t.Setenv("NET_FORCE_ANONYMIZED", "1")

	cfg := Load()

	if cfg.Chat.WindowSize != 10 {
		t.Errorf("WindowSize = %d, want 10", cfg.Chat.WindowSize)
	}
	if cfg.Chat.EphemeralWindow != 3*time.Second {
		t.Errorf("EphemeralWindow = %v, want 3s", cfg.Chat.EphemeralWindow)
	}
	if !cfg.Chat.RemoteBackend {
		t.Error("RemoteBackend override not applied")
	}
	if cfg.Net.Host != "abcdef.onion" {
		t.Errorf("Host = %q, want abcdef.onion", cfg.Net.Host)
	}
	if !cfg.Net.ForceAnonymized {
		t.Error("ForceAnonymized override not applied")
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("CHAT_WINDOW_SIZE", "not-a-number")
	t.Setenv("CHAT_EPHEMERAL_WINDOW", "soon")

	cfg := Load()

	if cfg.Chat.WindowSize != 50 {
		t.Errorf("WindowSize = %d, want default 50 on parse failure", cfg.Chat.WindowSize)
	}
	if cfg.Chat.EphemeralWindow != 10*time.Second {
		t.Errorf("EphemeralWindow = %v, want default 10s on parse failure", cfg.Chat.EphemeralWindow)
	}
}
