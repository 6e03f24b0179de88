package discovery

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ShortFormMaxSeconds is the longest duration still classified as short-form.
const ShortFormMaxSeconds = 60

// MaxDescriptionRunes bounds the description carried on a candidate.
const MaxDescriptionRunes = 200

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// shortFormMarkers are matched case-insensitively against titles.
var shortFormMarkers = []string{"#shorts", "#쇼츠", "shorts"}

// ParseDuration converts a compact ISO-8601 duration such as "PT1H2M3S"
// into seconds. Absent components count as zero. Malformed input and
// totals beyond int64 seconds yield 0.
func ParseDuration(raw string) int64 {
	m := isoDurationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}

	var total int64
	for i, unit := range []int64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		if n > (math.MaxInt64-total)/unit {
			return 0
		}
		total += n * unit
	}
	return total
}

// IsShortForm reports whether a video is short-form content: either its
// title carries a shorts marker or it runs for at most a minute.
func IsShortForm(durationSeconds int64, title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range shortFormMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return durationSeconds <= ShortFormMaxSeconds
}

// TruncateDescription cuts s to at most MaxDescriptionRunes runes.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxDescriptionRunes])
}
