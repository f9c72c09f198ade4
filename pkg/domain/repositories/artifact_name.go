package repositories

import (
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is the suffix layout of output artifact names
const TimestampLayout = "20060102_150405"

var timestampSuffix = regexp.MustCompile(`_\d{8}_\d{6}$`)

// StampName appends the run timestamp to stem, replacing the suffix a
// previous run left so repeated runs do not pile up timestamps
func StampName(stem string, at time.Time) string {
	return timestampSuffix.ReplaceAllString(stem, "") + "_" + at.Format(TimestampLayout)
}

// SplitLocation splits a path or URL into its parent and last element
func SplitLocation(location string) (parent, name string) {
	location = strings.TrimSuffix(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		return location[:i], location[i+1:]
	}
	return "", location
}

// JoinLocation appends name to a parent path or URL
func JoinLocation(parent, name string) string {
	if parent == "" {
		return name
	}
	return strings.TrimSuffix(parent, "/") + "/" + name
}
