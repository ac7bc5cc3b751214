package prefs

import (
	"fmt"
	"strings"

	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
)

// Theme values as stored.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ThemeSource says where a resolved theme came from.
type ThemeSource string

const (
	SourceStored  ThemeSource = "stored"
	SourceSystem  ThemeSource = "system"
	SourceDefault ThemeSource = "default"
)

// Theme is the persisted dark-mode preference.
type Theme struct {
	store Store
}

// NewTheme binds the theme preference to store.
func NewTheme(store Store) *Theme {
	return &Theme{store: store}
}

// Resolve returns whether dark mode is on. An explicit stored choice wins,
// then the OS preference signal (nil when unknown), then light.
func (t *Theme) Resolve(systemPrefersDark *bool) (bool, ThemeSource, error) {
	raw, ok, err := t.store.Get(KeyTheme)
	if err != nil {
		return false, "", fmt.Errorf("load theme: %w", err)
	}
	if ok {
		switch raw {
		case ThemeDark:
			return true, SourceStored, nil
		case ThemeLight:
			return false, SourceStored, nil
		}
	}
	if systemPrefersDark != nil {
		return *systemPrefersDark, SourceSystem, nil
	}
	return false, SourceDefault, nil
}

// Set stores an explicit choice.
func (t *Theme) Set(dark bool) error {
	if err := t.store.Set(KeyTheme, ThemeName(dark)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// Toggle flips the resolved theme and stores the result.
func (t *Theme) Toggle(systemPrefersDark *bool) (bool, error) {
	dark, _, err := t.Resolve(systemPrefersDark)
	if err != nil {
		return false, err
	}
	if err := t.Set(!dark); err != nil {
		return false, err
	}
	return !dark, nil
}

// ThemeName maps the dark flag to its stored string.
func ThemeName(dark bool) string {
	if dark {
		return ThemeDark
	}
	return ThemeLight
}

// ParseTheme accepts "dark" or "light".
func ParseTheme(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ThemeDark:
		return true, nil
	case ThemeLight:
		return false, nil
	}
	return false, apierrors.NewValidationError("theme", v, "must be dark or light")
}
