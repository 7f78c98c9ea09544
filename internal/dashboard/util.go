package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HumanInt formats integers with thousands separators.
func HumanInt(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var result strings.Builder
	for i, c := range reverse(s) {
		if i > 0 && i%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return sign + reverse(result.String())
}

// DurationShort formats a duration concisely (90s -> "1m", 26h -> "1d2h").
func DurationShort(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	if h == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, h)
}

// truncateWithEllipsis caps string length to prevent overflow in fixed-width cells.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen == 1 {
		return "…"
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

// Icons provides emoji/ASCII status markers.
type Icons struct {
	OK      string
	Warn    string
	Err     string
	Note    string
	Unknown string
}

func NewIcons(noEmoji bool) Icons {
	if noEmoji {
		return Icons{OK: "[OK]", Warn: "[!]", Err: "[X]", Note: "#", Unknown: "[?]"}
	}
	return Icons{OK: "✓", Warn: "⚠", Err: "✗", Note: "♪", Unknown: "◯"}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
