package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/wordbias/internal/emoji"
)

const barHalfWidth = 10

// formatNumber formats numbers with commas for readability
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + addCommas(s[1:])
	}
	return addCommas(s)
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

func formatScore(v float32) string {
	return fmt.Sprintf("%+.3f", v)
}

// formatBytes renders sizes in KiB/MiB
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ProjectionBar draws a signed bar around a center mark. Male leaning
// scores fill to the left, female leaning to the right. |score| >= 1
// fills the half.
func ProjectionBar(score float32) string {
	fill, empty := "█", " "
	if emoji.IsEmojiDisabled() {
		fill = "#"
	}

	n := int(absf(score)*barHalfWidth + 0.5)
	if n > barHalfWidth {
		n = barHalfWidth
	}

	left := strings.Repeat(empty, barHalfWidth)
	right := strings.Repeat(empty, barHalfWidth)
	if score < 0 {
		left = strings.Repeat(empty, barHalfWidth-n) + strings.Repeat(fill, n)
	} else {
		right = strings.Repeat(fill, n) + strings.Repeat(empty, barHalfWidth-n)
	}
	return left + "|" + right
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// truncateList keeps the first n items and reports how many were dropped
func truncateList(items []string, n int) ([]string, int) {
	if n <= 0 || len(items) <= n {
		return items, 0
	}
	return items[:n], len(items) - n
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
