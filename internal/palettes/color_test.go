package palettes

import (
	"reflect"
	"testing"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

func TestNormalizeHex(t *testing.T) {
	for _, in := range []string{"#abc", "#ABC", "#a1b2c3", " #A1B2C3 ", "#000", "#ffffff"} {
		once := NormalizeHex(in)
		if twice := NormalizeHex(once); twice != once {
			t.Fatalf("idempotent %q: once=%q twice=%q", in, once, twice)
		}
		if !IsHexColor(once) {
			t.Fatalf("%q normalized to invalid %q", in, once)
		}
	}
	if got := NormalizeHex("#abc"); got != "#AABBCC" {
		t.Fatalf("short form: want=%q got=%q", "#AABBCC", got)
	}
}

func TestDedupeColors(t *testing.T) {
	got := DedupeColors([]string{"#AABBCC", "#aabbcc", "#112233"})
	if want := []string{"#AABBCC", "#112233"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupe: want=%v got=%v", want, got)
	}
	got = DedupeColors([]string{"red", "#fff", "#FFFFFF", "#12345"})
	if want := []string{"#FFFFFF"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupe invalid: want=%v got=%v", want, got)
	}
}

func TestClampPalette(t *testing.T) {
	if p := ClampPalette(prompt.Palette{BackgroundColor: "#ffffff", CrayonColors: []string{"#111111"}}, 3, 5); p != nil {
		t.Fatalf("too few colors: want nil got=%+v", p)
	}
	p := ClampPalette(prompt.Palette{
		BackgroundColor: "#fff",
		CrayonColors:    []string{"#111", "#222", "#333", "#444", "#555", "#666"},
	}, 3, 5)
	if p == nil || p.BackgroundColor != "#FFFFFF" || len(p.CrayonColors) != 5 || p.CrayonColors[4] != "#555555" {
		t.Fatalf("clamp: got=%+v", p)
	}
}

func TestSeedToHex(t *testing.T) {
	a, b := SeedToHex("theme:Q1"), SeedToHex("theme:Q1")
	if a != b || !IsHexColor(a) {
		t.Fatalf("seed: a=%q b=%q", a, b)
	}
	if SeedToHex("theme:Q2") == a {
		t.Fatalf("different seeds collided")
	}
}

func TestLighten(t *testing.T) {
	if got := Lighten("#000000", 0.5); got != "#808080" {
		t.Fatalf("lighten black: want=%q got=%q", "#808080", got)
	}
	if got := Lighten("#FFFFFF", 0.7); got != "#FFFFFF" {
		t.Fatalf("lighten white: got=%q", got)
	}
	if got := Lighten("#FF0000", 0.7); got != "#FFB3B3" {
		t.Fatalf("lighten red: want=%q got=%q", "#FFB3B3", got)
	}
}

func TestSelectRequest(t *testing.T) {
	color := prompt.ColorConfig{
		Engines:    []string{"colormind"},
		Strategies: []prompt.ColorStrategy{{ID: "soft"}, {ID: "bold", BackgroundPolicy: prompt.BackgroundNeutral}},
		Limits:     &prompt.ColorLimits{Palettes: 2},
		Cache:      &prompt.CachePolicy{TTLSeconds: 300},
	}
	req := SelectRequest("city-tile", color, map[string]string{"strategy": "bold", "cityId": "Q90"})
	if req.Engine != "colormind" || req.Strategy == nil || req.Strategy.ID != "bold" || req.Seed != "Q90" {
		t.Fatalf("select: got=%+v", req)
	}
	if req.Limits != (Limits{Palettes: 2, MinColors: 3, MaxColors: 5}) || req.CacheTTLSeconds != 300 {
		t.Fatalf("limits: got=%+v ttl=%d", req.Limits, req.CacheTTLSeconds)
	}

	req = SelectRequest("city-tile", prompt.ColorConfig{}, map[string]string{"strategy": "x"})
	if req.Engine != "thecolorapi" || req.Strategy != nil || req.Seed != "city-tile" || req.CacheTTLSeconds != 0 {
		t.Fatalf("defaults: got=%+v", req)
	}

	req = SelectRequest("t", color, map[string]string{"engine": "thecolorapi", "strategy": "nope", "seed": "#123456", "themeId": "x"})
	if req.Engine != "thecolorapi" || req.Strategy.ID != "soft" || req.Seed != "#123456" {
		t.Fatalf("explicit: got=%+v", req)
	}
}
