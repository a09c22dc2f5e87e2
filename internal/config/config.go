// Package config defines the ambient settings the core needs outside of
// command-grammar parsing (which stays genuinely out of scope): floating
// size bounds, gap/border pixels, workspace/output assignment, window
// assignment rules, and the workspace name pool create_on_output draws
// from. Grounded on ItsNotGoodName-x-ipcviewer's config packages and
// elves-elvish's yaml-based settings, using gopkg.in/yaml.v3 instead of
// viper since nothing else in this module pulls in viper's dependency
// tree.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WindowAssignment is a match→action rule evaluated by C5 on adoption
// (spec.md §4.5).
type WindowAssignment struct {
	MatchClass    string `yaml:"match_class,omitempty"`
	MatchInstance string `yaml:"match_instance,omitempty"`
	MatchTitle    string `yaml:"match_title,omitempty"`

	// MatchMark matches against any mark a rule earlier in the list already
	// assigned to this window, letting a later rule key off an earlier
	// rule's action instead of the window's own properties.
	MatchMark string `yaml:"match_mark,omitempty"`

	// MatchFloating/MatchDock/MatchTransientFor are tri-state: unset (nil)
	// means "don't care", so a config only names the ones it wants to
	// constrain on.
	MatchFloating     *bool  `yaml:"match_floating,omitempty"`
	MatchDock         *bool  `yaml:"match_dock,omitempty"`
	MatchTransientFor *bool  `yaml:"match_transient_for,omitempty"`
	MatchWindowID     uint32 `yaml:"match_window_id,omitempty"`

	Workspace string `yaml:"workspace,omitempty"`
	Output    string `yaml:"output,omitempty"`
	Floating  bool   `yaml:"floating,omitempty"`
	Mark      string `yaml:"mark,omitempty"`
}

// Config is the full decoded configuration file.
type Config struct {
	GapPx    uint32 `yaml:"gap_px"`
	BorderPx uint32 `yaml:"border_px"`

	FloatingMinW int32 `yaml:"floating_min_w"`
	FloatingMinH int32 `yaml:"floating_min_h"`
	FloatingMaxW int32 `yaml:"floating_max_w"`
	FloatingMaxH int32 `yaml:"floating_max_h"`

	// WorkspaceOutputs maps a workspace name to the output name it should
	// be created on (spec.md §4.4 workspace_get's assignment lookup).
	WorkspaceOutputs map[string]string `yaml:"workspace_outputs,omitempty"`

	// WorkspaceNamePool lists workspace names drawn from configured
	// keybindings' `workspace ...` targets, in binding order, for
	// create_on_output to prefer over the lowest-free-integer fallback
	// (spec.md §4.4 create_on_output).
	WorkspaceNamePool []string `yaml:"workspace_name_pool,omitempty"`

	Assignments []WindowAssignment `yaml:"assignments,omitempty"`

	IPCSocketPath string `yaml:"ipc_socket_path,omitempty"`
}

// Default returns the configuration a fresh install (or a test) runs with:
// unlimited floating size, a 2px border, no gaps, no assignments.
func Default() Config {
	return Config{
		GapPx:        0,
		BorderPx:     2,
		FloatingMinW: -1,
		FloatingMinH: -1,
		FloatingMaxW: -1,
		FloatingMaxH: -1,
	}
}

// Load reads and decodes a yaml config file, filling any field the file
// omits from Default.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
