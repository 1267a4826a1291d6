// Package category resolves display attributes for free-form event
// categories. A handful of built-in keys carry a fixed label and accent;
// every other string gets a deterministic hue derived from its text.
package category

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	Work    = "work"
	Sleep   = "sleep"
	Meal    = "meal"
	Sport   = "sport"
	Leisure = "leisure"
	Other   = "other"
)

// Saturation and lightness used for derived accents.
const (
	customSaturation = 70
	customLightness  = 45
)

type builtin struct {
	label  string
	accent string
}

var defaults = map[string]builtin{
	Work:    {label: "Travail", accent: "#2563eb"},
	Sleep:   {label: "Sommeil", accent: "#6366f1"},
	Meal:    {label: "Repas", accent: "#f59e0b"},
	Sport:   {label: "Sport", accent: "#10b981"},
	Leisure: {label: "Loisir", accent: "#ec4899"},
	Other:   {label: "Autre", accent: "#64748b"},
}

// Defaults lists the built-in keys in display order.
func Defaults() []string {
	return []string{Work, Sleep, Meal, Sport, Leisure, Other}
}

// IsDefault reports whether c exactly matches a built-in key.
func IsDefault(c string) bool {
	_, ok := defaults[c]
	return ok
}

// Label returns the display label of a built-in key, or c unchanged.
func Label(c string) string {
	if b, ok := defaults[c]; ok {
		return b.label
	}
	return c
}

// Accent returns the category color: a fixed hex value for built-in keys,
// otherwise "hsl(H, 70%, 45%)" with H = Hue(c).
func Accent(c string) string {
	if b, ok := defaults[c]; ok {
		return b.accent
	}
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", Hue(c), customSaturation, customLightness)
}

// Hash folds c into a signed 32-bit value with hash = hash*31 + code over
// its UTF-16 code units, wrapping on overflow.
func Hash(c string) int32 {
	var h int32
	for _, code := range utf16.Encode([]rune(c)) {
		h = (h << 5) - h + int32(code)
	}
	return h
}

// Hue returns abs(Hash(c)) mod 360.
func Hue(c string) int {
	h := int64(Hash(c))
	if h < 0 {
		h = -h
	}
	return int(h % 360)
}

// Options returns the built-in keys followed by the custom categories that
// do not collide, case-insensitively, with a built-in or an earlier custom.
func Options(custom []string) []string {
	out := Defaults()
	seen := make(map[string]bool, len(out)+len(custom))
	for _, d := range out {
		seen[strings.ToLower(d)] = true
	}
	for _, c := range custom {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// Hex converts an accent ("#rrggbb" or "hsl(h, s%, l%)") into "#rrggbb".
func Hex(color string) (string, error) {
	color = strings.TrimSpace(color)
	if strings.HasPrefix(color, "#") && len(color) == 7 {
		return strings.ToLower(color), nil
	}
	if !strings.HasPrefix(color, "hsl(") || !strings.HasSuffix(color, ")") {
		return "", fmt.Errorf("category: unsupported color %q", color)
	}

	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(color, "hsl("), ")"), ",")
	if len(parts) != 3 {
		return "", fmt.Errorf("category: malformed hsl %q", color)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(p), "%"), 64)
		if err != nil {
			return "", fmt.Errorf("category: malformed hsl %q: %w", color, err)
		}
		vals[i] = v
	}

	h := math.Mod(vals[0], 360)
	if h < 0 {
		h += 360
	}
	return colorful.Hsl(h, vals[1]/100, vals[2]/100).Clamped().Hex(), nil
}
