package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axewm/axewm/internal/config"
)

func TestDefaultHasUnlimitedFloatingSize(t *testing.T) {
	cfg := config.Default()
	if cfg.FloatingMaxW != -1 || cfg.FloatingMaxH != -1 {
		t.Fatalf("default floating max = %d,%d, want unlimited (-1,-1)", cfg.FloatingMaxW, cfg.FloatingMaxH)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axewm.yaml")
	body := "gap_px: 8\nborder_px: 1\nworkspace_outputs:\n  \"1\": eDP-1\nassignments:\n  - match_class: \"^Firefox$\"\n    workspace: \"2\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GapPx != 8 || cfg.BorderPx != 1 {
		t.Fatalf("got gap=%d border=%d, want 8/1", cfg.GapPx, cfg.BorderPx)
	}
	if cfg.WorkspaceOutputs["1"] != "eDP-1" {
		t.Fatalf("workspace_outputs[1] = %q, want eDP-1", cfg.WorkspaceOutputs["1"])
	}
	if len(cfg.Assignments) != 1 || cfg.Assignments[0].Workspace != "2" {
		t.Fatalf("unexpected assignments: %+v", cfg.Assignments)
	}
	// Untouched fields keep their Default() value.
	if cfg.FloatingMinW != -1 {
		t.Fatalf("floating_min_w = %d, want -1 (untouched default)", cfg.FloatingMinW)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
