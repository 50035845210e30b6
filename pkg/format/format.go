// Package format holds small display helpers shared by the pipelines:
// rune-budget truncation, relative-time strings, and bar-chart rendering.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Ellipsis is appended to truncated strings.
const Ellipsis = "…"

// Truncate shortens s to at most max runes, the ellipsis included. A max
// below one returns the empty string.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + Ellipsis
}

// FirstNonEmpty returns the first non-blank candidate, or the empty string.
// Used for prioritized optional-field fallback chains so that the
// precedence lives in the call site's argument order.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// RelativeTime renders t relative to now with fixed minute/hour/day
// thresholds. No internationalization.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", n)
	case d < 24*time.Hour:
		n := int(d / time.Hour)
		if n == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", n)
	default:
		n := int(d / (24 * time.Hour))
		if n == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", n)
	}
}

// barGlyphs are ordered from empty to full fill.
var barGlyphs = []rune("░▒▓█")

// Bar renders a fill bar of exactly size glyphs for a percentage in
// [0,100]. percent=0 yields size repetitions of the lowest glyph,
// percent=100 size repetitions of the highest.
func Bar(percent float64, size int) string {
	if size <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := percent / 100 * float64(size)
	var b strings.Builder
	b.Grow(size * 3) // glyphs are multi-byte

	for i := 0; i < size; i++ {
		coverage := filled - float64(i)
		if coverage < 0 {
			coverage = 0
		}
		if coverage > 1 {
			coverage = 1
		}
		idx := int(coverage*float64(len(barGlyphs)-1) + 0.5)
		b.WriteRune(barGlyphs[idx])
	}

	return b.String()
}
