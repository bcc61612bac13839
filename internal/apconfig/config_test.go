package apconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != "archipelago.gg" {
		t.Fatalf("unexpected default address: %q", cfg.Server.Address)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	yaml := "server:\n  address: my.server:38281\nslot:\n  name: Alice\n  game: Clique\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != "my.server:38281" {
		t.Fatalf("got %q", cfg.Server.Address)
	}
	if cfg.Slot.Name != "Alice" || cfg.Slot.Game != "Clique" {
		t.Fatalf("got %+v", cfg.Slot)
	}
}

func TestLoad_ValidatesRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	if err := os.WriteFile(path, []byte("slot:\n  name: \"\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for empty slot name")
	}
}
