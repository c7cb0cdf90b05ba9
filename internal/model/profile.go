// Package model defines the profile and repository records fetched from
// GitHub and the result type returned by a fetch.
package model

import "time"

// Profile is a snapshot of a GitHub account taken once per query.
type Profile struct {
	Login       string  `json:"login"`
	Name        *string `json:"name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	PublicRepos int     `json:"publicRepos"`
	AvatarURL   string  `json:"avatarUrl"`
	HTMLURL     string  `json:"htmlUrl"`
}

// DisplayName returns the profile's name, falling back to the login.
func (p Profile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return p.Login
}

// Repository is a single repository owned by the profile.
type Repository struct {
	Name      string    `json:"name"`
	Language  *string   `json:"language,omitempty"` // nil when GitHub could not determine one
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasLanguage reports whether GitHub detected a primary language.
func (r Repository) HasLanguage() bool {
	return r.Language != nil && *r.Language != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
