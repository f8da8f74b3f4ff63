// Package identity resolves the user attributes that drive avatar
// rendering. The service never owns user records; it reads display
// names from an external directory and falls back to the user ID when
// no directory is configured.
package identity

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Identity is a read-only view of a user for rendering purposes.
type Identity interface {
	// ID returns the opaque user handle. Used for diagnostics and
	// storage scoping, never as a rendering input.
	ID() string

	// DisplayName returns the user's display name. May be empty.
	DisplayName() string
}

// Resolver looks up the current identity for a user.
type Resolver interface {
	Lookup(ctx context.Context, userID string) (Identity, error)
}

// User is a plain Identity value.
type User struct {
	UserID string
	Name   string
}

func (u User) ID() string          { return u.UserID }
func (u User) DisplayName() string { return u.Name }

// Static resolves every user to themselves: the display name is the
// user ID. Used when no directory service is configured.
type Static struct{}

func (Static) Lookup(ctx context.Context, userID string) (Identity, error) {
	return User{UserID: userID, Name: userID}, nil
}

// Initials derives the avatar text for a display name: the first rune
// of the first word followed by the first rune of the last word,
// uppercased. A single-word name yields one rune; an empty or blank
// name yields "?".
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}

	first, _ := utf8.DecodeRuneInString(words[0])
	if len(words) == 1 {
		return string(unicode.ToUpper(first))
	}

	last, _ := utf8.DecodeRuneInString(words[len(words)-1])

	return string(unicode.ToUpper(first)) + string(unicode.ToUpper(last))
}
