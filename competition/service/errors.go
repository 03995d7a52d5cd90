// competition/service/errors.go
package service

import (
	"errors"
	"fmt"
)

// Business rejections. They are returned wrapped with entity context; test with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyInTeam       = errors.New("user already in a team")
	ErrTeamFull            = errors.New("team is full")
	ErrNotMember           = errors.New("user is not a member of the team")
	ErrRegistrationClosed  = errors.New("registration closed")
	ErrEventFull           = errors.New("event is full")
	ErrAlreadyRegistered   = errors.New("team already registered")
	ErrInvalidTransition   = errors.New("invalid event status transition")
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrAlreadyInTeam, "ALREADY_IN_TEAM"},
	{ErrTeamFull, "TEAM_FULL"},
	{ErrNotMember, "NOT_MEMBER"},
	{ErrRegistrationClosed, "REGISTRATION_CLOSED"},
	{ErrEventFull, "EVENT_FULL"},
	{ErrAlreadyRegistered, "ALREADY_REGISTERED"},
	{ErrInvalidTransition, "INVALID_TRANSITION"},
	{ErrDuplicateSubmission, "DUPLICATE_SUBMISSION"},
}

// CodeInternal is reported for errors that are not business rejections.
const CodeInternal = "INTERNAL"

// Code returns the stable machine code for err, "" for nil and CodeInternal for
// anything that is not a business rejection.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// IsRejection reports whether err is one of the business rejections above.
func IsRejection(err error) bool {
	c := Code(err)
	return c != "" && c != CodeInternal
}

func reject(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
