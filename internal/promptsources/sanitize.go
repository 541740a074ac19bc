package promptsources

import (
	"regexp"
	"strings"
	"sync"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

const (
	defaultAllowedPattern = `A-Za-z0-9 ,.'-`
	defaultMaxLength      = 80
)

var (
	lineBreaks = regexp.MustCompile(`[\r\n]+`)
	whitespace = regexp.MustCompile(`\s+`)

	disallowedMu    sync.RWMutex
	disallowedCache = map[string]*regexp.Regexp{}
)

// SanitizeLabel reduces value to the allowed character class and bounds its
// length. It never fails; an empty result is left for the caller to reject.
func SanitizeLabel(value string, cfg *prompt.Sanitization) string {
	pattern, maxLen := defaultAllowedPattern, defaultMaxLength
	if cfg != nil {
		if cfg.AllowedPattern != "" {
			pattern = cfg.AllowedPattern
		}
		if cfg.MaxLength > 0 {
			maxLen = cfg.MaxLength
		}
	}
	out := lineBreaks.ReplaceAllString(value, " ")
	out = disallowed(pattern).ReplaceAllString(out, "")
	out = strings.TrimSpace(whitespace.ReplaceAllString(out, " "))
	if r := []rune(out); len(r) > maxLen {
		out = strings.TrimSpace(string(r[:maxLen]))
	}
	return out
}

// disallowed matches runs outside the allowed class. A pattern that does not
// compile falls back to the default class.
func disallowed(pattern string) *regexp.Regexp {
	disallowedMu.RLock()
	re, ok := disallowedCache[pattern]
	disallowedMu.RUnlock()
	if ok {
		return re
	}
	re, err := regexp.Compile("[^" + pattern + "]+")
	if err != nil {
		re = regexp.MustCompile("[^" + defaultAllowedPattern + "]+")
	}
	disallowedMu.Lock()
	disallowedCache[pattern] = re
	disallowedMu.Unlock()
	return re
}

// normalizeOptions trims ids, drops empty and duplicate ids, sanitizes
// labels (falling back to the id) and caps the list when limit > 0.
func normalizeOptions(opts []prompt.Option, cfg *prompt.Sanitization, limit int) []prompt.Option {
	seen := map[string]bool{}
	out := make([]prompt.Option, 0, len(opts))
	for _, opt := range opts {
		id := strings.TrimSpace(opt.ID)
		if id == "" || seen[id] {
			continue
		}
		raw := opt.Label
		if raw == "" {
			raw = id
		}
		label := SanitizeLabel(raw, cfg)
		if label == "" {
			continue
		}
		seen[id] = true
		out = append(out, prompt.Option{ID: id, Label: label})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
