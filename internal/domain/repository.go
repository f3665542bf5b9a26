// Package domain contains the core data structures and domain logic for the application.
package domain

import "fmt"

// Repository identifies a single upstream repository.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the repository in "owner/name" form.
func (r Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Contributor is one entry of a repository's contributor listing.
type Contributor struct {
	Name          string `json:"name"`
	Contributions int    `json:"contributions"`
}

// SearchQuery selects the repositories the listing stage walks through.
type SearchQuery struct {
	Language string
	Sort     Sort
}
