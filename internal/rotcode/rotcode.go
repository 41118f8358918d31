// Package rotcode derives the shared per-minute check-in code for a
// course. Every client that knows the course code computes the same
// 4-digit value for the same minute, so no server round trip is needed
// to distribute it.
package rotcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GraceSeconds is how far into a new minute a code from the previous
// minute bucket is still accepted. Tolerates clock and network skew
// across devices.
const GraceSeconds = 10

// Generate returns the 4-digit code for the course at t's minute bucket.
// Deterministic: identical (courseCode, minute bucket) inputs yield
// identical output.
func Generate(courseCode string, t time.Time) string {
	return GenerateAt(courseCode, t, 0)
}

// GenerateAt returns the code for t shifted by minuteOffset minutes,
// e.g. -1 for the previous bucket.
func GenerateAt(courseCode string, t time.Time, minuteOffset int) string {
	t = t.Add(time.Duration(minuteOffset) * time.Minute)
	seed := fmt.Sprintf("%s|%s|%02d%02d", courseCode, t.Format("2006-01-02"), t.Hour(), t.Minute())

	var h int32
	for _, ch := range seed {
		h = h<<5 - h + int32(ch)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return fmt.Sprintf("%04d", v%10000)
}

// Accept reports whether a submitted passcode matches the current minute
// bucket, or the previous bucket while still inside the grace window.
func Accept(courseCode, submitted string, now time.Time) bool {
	if submitted == Generate(courseCode, now) {
		return true
	}
	return now.Second() < GraceSeconds && submitted == GenerateAt(courseCode, now, -1)
}

// SecondsToRotation returns the countdown to the next minute boundary.
// For UI display only; acceptance is governed by Accept.
func SecondsToRotation(now time.Time) int {
	return 60 - now.Second()
}

// StaffCode returns a fresh random 4-digit code for the instructor-facing
// manual path. It is independent of the rotating code and is shown only
// after the device's local verification step.
func StaffCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
