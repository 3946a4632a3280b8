package usecase

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// defaultRetryDelay is used when the rate-limit detail carries no parseable
// wait duration.
const defaultRetryDelay = 10 * time.Second

var durationToken = regexp.MustCompile(`(\d+(?:\.\d+)?)(h|m|s)`)

// retryDelay extracts the server-suggested wait from a rate-limit detail
// such as "Please try again in 1m30.5s". Hours and minutes are integers,
// seconds may be fractional; any component may be absent. The parsed value
// is returned verbatim, even when implausibly large or zero, since it is
// what the server asked for.
func retryDelay(detail string) time.Duration {
	tokens := durationToken.FindAllStringSubmatch(detail, -1)
	if len(tokens) == 0 {
		return defaultRetryDelay
	}

	var ms float64
	for _, token := range tokens {
		value, err := strconv.ParseFloat(token[1], 64)
		if err != nil {
			continue
		}
		switch token[2] {
		case "h":
			ms += value * 3600 * 1000
		case "m":
			ms += value * 60 * 1000
		case "s":
			ms += value * 1000
		}
	}
	return time.Duration(math.Round(ms)) * time.Millisecond
}
