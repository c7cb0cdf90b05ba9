package model

import (
	"time"
)

// Result is the outcome of fetching one profile. It is either an
// *ErrorResult or a *SuccessResult; callers must handle both.
type Result interface {
	isResult()
}

// ErrorKind classifies why a fetch produced no data.
type ErrorKind string

const (
	// ErrorEmptyInput means the username was blank and nothing was requested.
	ErrorEmptyInput ErrorKind = "empty_input"
	// ErrorProfileUnavailable means the profile request did not succeed.
	// GitHub answers both unknown users and exhausted quotas with a
	// non-success status, so the two are not told apart.
	ErrorProfileUnavailable ErrorKind = "profile_unavailable"
)

// Messages shown for each error kind.
const (
	MessageEmptyInput         = "no data"
	MessageProfileUnavailable = "User not found or API rate limit exceeded."
)

// ErrorResult carries a human-readable message for a failed fetch.
type ErrorResult struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (*ErrorResult) isResult() {}

// Error implements error so an ErrorResult can be wrapped where needed.
func (e *ErrorResult) Error() string {
	return e.Message
}

// EmptyInput returns the result for a blank username.
func EmptyInput() *ErrorResult {
	return &ErrorResult{Kind: ErrorEmptyInput, Message: MessageEmptyInput}
}

// ProfileUnavailable returns the result for a failed profile request.
func ProfileUnavailable() *ErrorResult {
	return &ErrorResult{Kind: ErrorProfileUnavailable, Message: MessageProfileUnavailable}
}

// SuccessResult pairs a profile with every repository that could be listed.
type SuccessResult struct {
	Profile      Profile      `json:"profile"`
	Repositories []Repository `json:"repositories"`
	FetchedAt    time.Time    `json:"fetchedAt"`

	// Partial is set when pagination stopped before an empty page, either
	// because a page request failed or the page limit was reached.
	Partial       bool   `json:"partial,omitempty"`
	PartialReason string `json:"partialReason,omitempty"`
}

func (*SuccessResult) isResult() {}

// ExceedsDeclared reports whether more repositories were listed than the
// profile declares, beyond what a single page of drift can explain.
// This is informational only; nothing rejects such a result.
func (s *SuccessResult) ExceedsDeclared(pageSize int) bool {
	return len(s.Repositories) > s.Profile.PublicRepos+pageSize
}
