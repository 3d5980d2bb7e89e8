package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Number groups digits in threes: 1234567 is "1,234,567".
func Number(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if digits[0] == '-' {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Bytes formats a byte count with binary units.
// Examples: 512 is "512 B", 1536 is "1.5 KiB", 3<<30 is "3.0 GiB".
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 5; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Ratio formats compressed/raw as a percentage. An empty input is "-".
func Ratio(compressed, raw int64) string {
	if raw == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(compressed)*100/float64(raw))
}

// Duration is a coarse elapsed time for log lines: "0s" under a second,
// tenths of a second under a minute ("5.2s", "3m5.2s"), and whole minutes
// from an hour up ("2h15m").
func Duration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		minutes := d / time.Minute
		return fmt.Sprintf("%dm%.1fs", int(minutes), (d - minutes*time.Minute).Seconds())
	default:
		return fmt.Sprintf("%dh%dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	}
}

// Rate formats a per-second throughput, scaling to K or M past a thousand.
func Rate(rate float64) string {
	switch {
	case rate >= 1e6:
		return fmt.Sprintf("%.2fM", rate/1e6)
	case rate >= 1e3:
		return fmt.Sprintf("%.2fK", rate/1e3)
	default:
		return fmt.Sprintf("%.2f", rate)
	}
}
