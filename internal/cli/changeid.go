package cli

import (
	"fmt"
	"regexp"
	"strconv"
)

// Accepted change argument forms
var (
	// a Change-Id as embedded in commit message trailers
	changeIDRe = regexp.MustCompile(`^I[0-9a-f]{8,40}$`)

	// a legacy sequential change number
	legacyIDRe = regexp.MustCompile(`^\d+$`)

	// a range of legacy change numbers, e.g. 345..349
	legacyRangeRe = regexp.MustCompile(`^(\d+)\.\.(\d+)$`)
)

// expandChangeArgs converts command-line change arguments into a flat list of
// change identifiers. Each argument is a Change-Id, a change number, or a
// range of change numbers.
func expandChangeArgs(args []string) ([]string, error) {
	var ids []string
	for _, arg := range args {
		switch {
		case changeIDRe.MatchString(arg) || legacyIDRe.MatchString(arg):
			ids = append(ids, arg)
		case legacyRangeRe.MatchString(arg):
			expanded, err := expandRange(arg)
			if err != nil {
				return nil, err
			}
			ids = append(ids, expanded...)
		default:
			return nil, fmt.Errorf("invalid change identifier: %s", arg)
		}
	}
	return ids, nil
}

// expandRange expands "N..M" into the individual change numbers
func expandRange(arg string) ([]string, error) {
	match := legacyRangeRe.FindStringSubmatch(arg)
	lower, _ := strconv.Atoi(match[1])
	upper, _ := strconv.Atoi(match[2])
	if lower > upper {
		return nil, fmt.Errorf("invalid change range: %s", arg)
	}

	var ids []string
	for n := lower; n <= upper; n++ {
		ids = append(ids, strconv.Itoa(n))
	}
	return ids, nil
}
