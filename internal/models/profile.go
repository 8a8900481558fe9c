package models

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/desertthunder/flix/internal/shared"
)

// DefaultProfileName is the name given to the profile created on first start.
const DefaultProfileName = "Guest"

// Profile is the single local session profile.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DefaultProfile returns the profile created when none exists.
func DefaultProfile() Profile {
	return Profile{Name: DefaultProfileName, Email: "guest@flix.local"}
}

// Validate checks that the profile has a name and a well-formed email.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", shared.ErrInvalidInput, p.Email)
	}
	return nil
}
