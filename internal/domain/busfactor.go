package domain

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// BusFactor is a repository whose top contributor holds at least the
// configured share of contributions among its most active contributors.
type BusFactor struct {
	Repository  string  `json:"repository" yaml:"repository"`
	Contributor string  `json:"contributor" yaml:"contributor"`
	Ratio       float64 `json:"ratio" yaml:"ratio"`
}

func (b BusFactor) String() string {
	return fmt.Sprintf("project: %s user: %s percentage: %.2f", b.Repository, b.Contributor, b.Ratio)
}

// Reduce computes the share of the first contributor among all given
// contributors and returns a BusFactor when it reaches threshold.
// Contributors must be ordered by contributions, highest first.
// The share is rounded to two decimal places before comparison.
func Reduce(contributors []Contributor, repository string, threshold float64) (BusFactor, bool) {
	if len(contributors) == 0 {
		return BusFactor{}, false
	}

	total := 0
	for _, c := range contributors {
		total += c.Contributions
	}
	if total <= 0 {
		return BusFactor{}, false
	}

	top := contributors[0]
	ratio, err := stats.Round(float64(top.Contributions)/float64(total), 2)
	if err != nil {
		return BusFactor{}, false
	}
	if ratio < threshold {
		return BusFactor{}, false
	}

	return BusFactor{
		Repository:  repository,
		Contributor: top.Name,
		Ratio:       ratio,
	}, true
}
