// Package prefs handles fastline user preferences persistence.
// Preferences are stored in ~/.config/fastline/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hyperengineering/fastline/internal/types"
)

// Presets are the fasting targets offered by the timer, in hours.
var Presets = []int{16, 18, 20}

// Prefs holds user preferences.
type Prefs struct {
	// PresetHours is the target a new fast starts with and the value the
	// timer resets to after a completed fast is dismissed.
	PresetHours int    `toml:"preset_hours"`
	Theme       string `toml:"theme"`
	// WaterQuickAdd lists the amounts offered as one-tap water entries.
	WaterQuickAdd []int `toml:"water_quick_add_ml"`
	Goal          Goal  `toml:"goal"`
}

// Goal holds the body metrics behind the weight goal. Zero fields are unset.
type Goal struct {
	HeightCM float64 `toml:"height_cm"`
	// TargetKG overrides the configured goal weight when set.
	TargetKG float64 `toml:"target_kg"`
}

// Height bounds accepted for Goal.HeightCM.
const (
	MinHeightCM = 50.0
	MaxHeightCM = 272.0
)

const (
	defaultPrefsPath   = "~/.config/fastline/prefs.toml"
	defaultTheme       = "default"
	defaultPresetHours = 16
)

// Default returns the preferences used when no file exists.
func Default() Prefs {
	return Prefs{
		PresetHours:   defaultPresetHours,
		Theme:         defaultTheme,
		WaterQuickAdd: []int{250, 500},
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults for
// a missing or unreadable file and for individual invalid fields.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Default(), nil // Graceful degradation
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default(), nil // Graceful degradation
	}

	return normalize(p), nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(normalize(p))
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func normalize(p Prefs) Prefs {
	d := Default()
	if p.PresetHours < types.MinTargetHours || p.PresetHours > types.MaxTargetHours {
		p.PresetHours = d.PresetHours
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = d.Theme
	}
	var quick []int
	for _, ml := range p.WaterQuickAdd {
		if ml > 0 && ml <= types.MaxWaterML {
			quick = append(quick, ml)
		}
	}
	if len(quick) == 0 {
		quick = d.WaterQuickAdd
	}
	p.WaterQuickAdd = quick
	if !(p.Goal.HeightCM >= MinHeightCM && p.Goal.HeightCM <= MaxHeightCM) {
		p.Goal.HeightCM = 0
	}
	if !(p.Goal.TargetKG >= types.MinWeightKG && p.Goal.TargetKG <= types.MaxWeightKG) {
		p.Goal.TargetKG = 0
	}
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
