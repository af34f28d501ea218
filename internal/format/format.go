// Package format turns raw catalog numbers into display strings and
// escapes text for embedding into card markup.
package format

import (
	"fmt"
	"math"
	"strings"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// BytesToHuman scales n by 1024 up to TB. The B tier has no decimals,
// every other tier has one.
func BytesToHuman(n float64) string {
	x := finite(n)
	i := 0
	for x >= 1024 && i < len(byteUnits)-1 {
		x /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f %s", roundHalfUp(x, 0), byteUnits[i])
	}
	return fmt.Sprintf("%.1f %s", roundHalfUp(x, 1), byteUnits[i])
}

// SecondsToHuman renders "45s" below a minute and "2m 05s" above.
func SecondsToHuman(s float64) string {
	s = finite(s)
	m := math.Floor(s / 60)
	r := math.Floor(math.Mod(s, 60))
	if m <= 0 {
		return fmt.Sprintf("%.0fs", r)
	}
	return fmt.Sprintf("%.0fm %02.0fs", m, r)
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces & < > " ' with entities and leaves everything else.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// EscapeAttr is EscapeHTML plus a second pass over double quotes.
// The second pass never matches; the output is the same as EscapeHTML.
func EscapeAttr(s string) string {
	return strings.ReplaceAll(EscapeHTML(s), `"`, "&quot;")
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// roundHalfUp rounds ties away from zero, which is what the catalog
// page has always shown (1.25 KB -> "1.3 KB").
func roundHalfUp(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
