// Package palette resolves the six-role color palettes that drive cover
// composition. Identifiers name a builtin palette or a JSON palette file.
package palette

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"storypack/internal/stage"
)

// Role names one of the six color slots a palette must bind. The string
// values double as the JSON keys of custom palette files.
type Role string

const (
	RoleBackgroundStart Role = "BG1"
	RoleBackgroundEnd   Role = "BG2"
	RoleTitle           Role = "TITLE_COLOR"
	RoleSubtitle        Role = "SUBTITLE_COLOR"
	RoleBadgeBackground Role = "BADGE_BG"
	RoleBadgeText       Role = "BADGE_COLOR"
)

// Roles returns every role in canonical order.
func Roles() []Role {
	return []Role{
		RoleBackgroundStart,
		RoleBackgroundEnd,
		RoleTitle,
		RoleSubtitle,
		RoleBadgeBackground,
		RoleBadgeText,
	}
}

// Palette binds every role to a hex color. Values are always of the form
// #RGB or #RRGGBB.
type Palette struct {
	BackgroundStart string
	BackgroundEnd   string
	Title           string
	Subtitle        string
	BadgeBackground string
	BadgeText       string
}

// Color returns the value bound to a role.
func (p Palette) Color(role Role) string {
	switch role {
	case RoleBackgroundStart:
		return p.BackgroundStart
	case RoleBackgroundEnd:
		return p.BackgroundEnd
	case RoleTitle:
		return p.Title
	case RoleSubtitle:
		return p.Subtitle
	case RoleBadgeBackground:
		return p.BadgeBackground
	case RoleBadgeText:
		return p.BadgeText
	default:
		return ""
	}
}

var builtins = map[string]Palette{
	"warm": {
		BackgroundStart: "#1d2540",
		BackgroundEnd:   "#0c1326",
		Title:           "#F5F1E8",
		Subtitle:        "#E7DFCF",
		BadgeBackground: "#2A3358",
		BadgeText:       "#F5F1E8",
	},
	"cool": {
		BackgroundStart: "#10222b",
		BackgroundEnd:   "#0a1720",
		Title:           "#EAF6FF",
		Subtitle:        "#D3EAF8",
		BadgeBackground: "#1c2f3a",
		BadgeText:       "#EAF6FF",
	},
	"forest": {
		BackgroundStart: "#142117",
		BackgroundEnd:   "#0b140d",
		Title:           "#F2F6EA",
		Subtitle:        "#E6EDD9",
		BadgeBackground: "#1c2b1f",
		BadgeText:       "#F2F6EA",
	},
}

// DefaultName is the palette used when a story does not pick one.
const DefaultName = "warm"

// Builtins returns the builtin palette names in sorted order.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin looks up a builtin palette by case-insensitive name.
func Builtin(name string) (Palette, bool) {
	p, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Resolve maps a palette identifier to a Palette. The identifier is first
// matched against builtin names case-insensitively; anything else is treated
// as the path of a JSON palette file binding all six roles. Failures are
// configuration errors.
func Resolve(identifier string) (Palette, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		trimmed = DefaultName
	}
	if p, ok := Builtin(trimmed); ok {
		return p, nil
	}
	return loadFile(trimmed)
}

func loadFile(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, stage.Wrap(stage.ErrConfiguration, "palette", "read file",
			fmt.Sprintf("palette %q is not a builtin (%s) and could not be read as a file", path, strings.Join(Builtins(), ", ")), err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Palette{}, stage.Wrap(stage.ErrConfiguration, "palette", "parse file",
			fmt.Sprintf("palette file %s is not a flat JSON object of color strings", path), err)
	}

	var p Palette
	for _, role := range Roles() {
		value, ok := raw[string(role)]
		if !ok || strings.TrimSpace(value) == "" {
			return Palette{}, stage.Wrap(stage.ErrConfiguration, "palette", "validate file",
				fmt.Sprintf("palette file %s is missing role %s", path, role), nil)
		}
		if err := setRole(&p, role, strings.TrimSpace(value)); err != nil {
			return Palette{}, stage.Wrap(stage.ErrConfiguration, "palette", "validate file",
				fmt.Sprintf("palette file %s role %s", path, role), err)
		}
	}
	return p, nil
}

func setRole(p *Palette, role Role, value string) error {
	if !IsHexColor(value) {
		return fmt.Errorf("value %q is not a #RGB or #RRGGBB hex color", value)
	}
	switch role {
	case RoleBackgroundStart:
		p.BackgroundStart = value
	case RoleBackgroundEnd:
		p.BackgroundEnd = value
	case RoleTitle:
		p.Title = value
	case RoleSubtitle:
		p.Subtitle = value
	case RoleBadgeBackground:
		p.BadgeBackground = value
	case RoleBadgeText:
		p.BadgeText = value
	}
	return nil
}

// IsHexColor reports whether value is a #RGB or #RRGGBB hex color.
func IsHexColor(value string) bool {
	if len(value) != 4 && len(value) != 7 {
		return false
	}
	if value[0] != '#' {
		return false
	}
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
