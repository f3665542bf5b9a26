package domain

import (
	"fmt"
	"strings"
)

// Sort is the order in which top repositories are listed.
type Sort int

const (
	SortStars Sort = iota
	SortForks
	SortHelpWantedIssues
	SortUpdated
)

var sortNames = map[Sort]string{
	SortStars:            "stars",
	SortForks:            "forks",
	SortHelpWantedIssues: "help-wanted-issues",
	SortUpdated:          "updated",
}

// String returns the upstream name of the sort order.
func (s Sort) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Sort(%d)", int(s))
}

// ParseSort converts a sort name into a Sort. Underscores are accepted in
// place of dashes.
func ParseSort(name string) (Sort, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for sort, candidate := range sortNames {
		if candidate == normalized {
			return sort, nil
		}
	}
	return 0, ConfigError("parse sort", fmt.Errorf("unknown sort order %q (want stars, forks, help-wanted-issues or updated)", name))
}

// SortNames lists the accepted sort names in declaration order.
func SortNames() []string {
	return []string{
		SortStars.String(),
		SortForks.String(),
		SortHelpWantedIssues.String(),
		SortUpdated.String(),
	}
}
