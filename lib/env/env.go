package env

import (
	"os"
	"strconv"
	"time"
)

func Debug() bool {
	return os.Getenv("DEBUG") != ""
}

// Timeout reads $PUMLDOC_TIMEOUT as either a duration or a plain number of seconds.
func Timeout() (time.Duration, bool) {
	s := os.Getenv("PUMLDOC_TIMEOUT")
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(i) * time.Second, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	return 0, false
}
