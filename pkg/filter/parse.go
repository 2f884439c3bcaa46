package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a dotted version string into a major.minor.patch version.
// Missing or non-numeric components are treated as 0, so "17", "17.0" and
// "17.x" all parse as 17.0.0. Extra components are ignored.
func ParseVersion(value string) *semver.Version {
	parts := strings.Split(value, ".")
	var nums [3]uint64
	for i := 0; i < len(nums) && i < len(parts); i++ {
		nums[i] = parseComponent(parts[i])
	}
	return semver.New(nums[0], nums[1], nums[2], "", "")
}

func parseComponent(s string) uint64 {
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// VersionGE reports whether version a >= version b.
func VersionGE(a, b string) bool {
	return ParseVersion(a).Compare(ParseVersion(b)) >= 0
}

// VersionLE reports whether version a <= version b.
func VersionLE(a, b string) bool {
	return ParseVersion(a).Compare(ParseVersion(b)) <= 0
}

// offset-aware layouts; a trailing Z is accepted by RFC3339.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07:00",
}

// naive layouts are interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses an ISO-8601 timestamp permissively and returns it in UTC.
// Timestamps without an offset are assumed to be UTC.
func ParseDateTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
