// Package palettes suggests background and crayon colors for a template,
// backed by external color-scheme engines with a curated fallback.
package palettes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

var (
	hexColor      = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	shortHexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)
)

func IsHexColor(s string) bool { return hexColor.MatchString(s) }

// NormalizeHex uppercases s and expands the three-digit form. Input that
// is not a hex color is returned uppercased and trimmed.
func NormalizeHex(s string) string {
	h := strings.ToLower(strings.TrimSpace(s))
	if shortHexColor.MatchString(h) {
		h = "#" + strings.Repeat(h[1:2], 2) + strings.Repeat(h[2:3], 2) + strings.Repeat(h[3:4], 2)
	}
	return strings.ToUpper(h)
}

// DedupeColors normalizes colors, dropping invalid entries and repeats
// while keeping first-seen order.
func DedupeColors(colors []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		h := NormalizeHex(c)
		if !IsHexColor(h) || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// ClampPalette caps the crayon colors at maxColors. It returns nil when
// fewer than minColors distinct colors remain.
func ClampPalette(p prompt.Palette, minColors, maxColors int) *prompt.Palette {
	colors := DedupeColors(p.CrayonColors)
	if maxColors > 0 && len(colors) > maxColors {
		colors = colors[:maxColors]
	}
	if len(colors) < minColors {
		return nil
	}
	return &prompt.Palette{
		Name:            p.Name,
		BackgroundColor: NormalizeHex(p.BackgroundColor),
		CrayonColors:    colors,
		Meta:            p.Meta,
	}
}

// SeedToHex derives a stable color from an arbitrary seed string.
func SeedToHex(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return "#" + strings.ToUpper(hex.EncodeToString(sum[:])[:6])
}

// Lighten blends h towards white by amount in [0,1].
func Lighten(h string, amount float64) string {
	n := strings.TrimPrefix(NormalizeHex(h), "#")
	if len(n) != 6 {
		return NormalizeHex(h)
	}
	var out strings.Builder
	out.WriteByte('#')
	for i := 0; i < 6; i += 2 {
		c, err := strconv.ParseUint(n[i:i+2], 16, 8)
		if err != nil {
			return NormalizeHex(h)
		}
		mixed := math.Round(float64(c) + (255-float64(c))*amount)
		fmt.Fprintf(&out, "%02X", int(mixed))
	}
	return out.String()
}

func rgbToHex(rgb []int) string {
	var out strings.Builder
	out.WriteByte('#')
	for _, v := range rgb {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		fmt.Fprintf(&out, "%02X", v)
	}
	return out.String()
}

var fallbackPalettes = []prompt.Palette{
	{Name: "Pastel", BackgroundColor: "#FFF7E6", CrayonColors: []string{"#FF6B6B", "#FFD93D", "#6BCB77"}},
	{Name: "Cool", BackgroundColor: "#F5F1FF", CrayonColors: []string{"#7C83FD", "#96BAFF", "#7DEDFF"}},
	{Name: "Candy", BackgroundColor: "#FFF2F2", CrayonColors: []string{"#FFB5E8", "#FF9CEE", "#A79AFF"}},
}
