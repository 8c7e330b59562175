// Package racetime parses, formats and rounds handicap and finish times
package racetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrInvalidFormat = errors.New("racetime: invalid format")
	ErrInvalidValue  = errors.New("racetime: invalid value")
	ErrNegativeTime  = errors.New("racetime: negative time")
)

var (
	handicapPattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	finishPattern   = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d{2})(?:\.(\d+))?$`)
)

// ParseHandicapTime parses a strict MM:SS handicap. Minutes above 59 are
// overflow minutes, not hours.
func ParseHandicapTime(text string) (time.Duration, error) {
	m := handicapPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q, expected MM:SS", ErrInvalidFormat, text)
	}
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])
	if seconds >= 60 {
		return 0, fmt.Errorf("%w: seconds %d in %q", ErrInvalidValue, seconds, text)
	}
	return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// FormatHandicapTime formats d as zero-padded MM:SS, dropping sub-second precision
func FormatHandicapTime(d time.Duration) (string, error) {
	if d < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegativeTime, d)
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// FormatFinishTime formats d as M:SS.D with the tenths digit truncated
func FormatFinishTime(d time.Duration) (string, error) {
	if d < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegativeTime, d)
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	tenths := (ms % 1000) / 100
	return fmt.Sprintf("%d:%02d.%d", minutes, seconds, tenths), nil
}

// ParseFinishTime parses M:SS, M:SS.D or H:MM:SS[.D] elapsed times as
// written by timing sheets. Fractions beyond milliseconds are dropped.
func ParseFinishTime(text string) (time.Duration, error) {
	m := finishPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q, expected M:SS.D", ErrInvalidFormat, text)
	}
	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}
	seconds, _ := strconv.Atoi(m[3])
	if seconds >= 60 || (m[1] != "" && minutes >= 60) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}
	frac := m[4]
	if len(frac) > 3 {
		frac = frac[:3]
	}
	ms := 0
	if frac != "" {
		ms, _ = strconv.Atoi(frac)
		for i := len(frac); i < 3; i++ {
			ms *= 10
		}
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// RoundUpTo5Seconds rounds d up to whole seconds, then up to the next
// multiple of five seconds. Non-positive input yields 0.
func RoundUpTo5Seconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	secs = (secs + 4) / 5 * 5
	return time.Duration(secs) * time.Second
}

// RoundToNearest15Seconds rounds d to the nearest second, then to the
// nearest multiple of fifteen seconds with halves going up. Non-positive
// input yields 0.
func RoundToNearest15Seconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	secs := int64((d + 500*time.Millisecond) / time.Second)
	q, r := secs/15, secs%15
	if r*2 >= 15 {
		q++
	}
	return time.Duration(q*15) * time.Second
}
