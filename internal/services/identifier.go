package services

import (
	"fmt"
	"regexp"
	"strconv"
)

// UniqueIDPrefix starts every public participant identifier.
const UniqueIDPrefix = "HACK"

var uniqueIDPattern = regexp.MustCompile(`^` + UniqueIDPrefix + `(\d+)$`)

// FormatUniqueID renders n as HACK followed by at least four digits.
func FormatUniqueID(n int) string {
	return fmt.Sprintf("%s%04d", UniqueIDPrefix, n)
}

// NextUniqueID returns the identifier following last. An empty last starts
// the sequence at HACK0001.
func NextUniqueID(last string) (string, error) {
	if last == "" {
		return FormatUniqueID(1), nil
	}
	m := uniqueIDPattern.FindStringSubmatch(last)
	if m == nil {
		return "", &MalformedSequenceError{Value: last}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", &MalformedSequenceError{Value: last}
	}
	return FormatUniqueID(n + 1), nil
}
