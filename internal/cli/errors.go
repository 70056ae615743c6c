package cli

import (
	"errors"
	"os"
)

// ErrDoctorIssuesFound is returned by `doctor --fail` when a check fails.
var ErrDoctorIssuesFound = errors.New("doctor found issues")

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
