package pages

import (
	"errors"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/directory"
	"github.com/choosemyai/backend/internal/store"
)

// userMessages are the errors a visitor can fix by changing the form.
var userMessages = []struct {
	err     error
	message string
}{
	{directory.ErrUsernameTaken, "Username already exists"},
	{directory.ErrEmailTaken, "Email already registered"},
	{directory.ErrInvalidCredentials, "Invalid username or password"},
	{directory.ErrEmptyContent, "Please write something first."},
	{directory.ErrSelfDemotion, "You cannot remove your own admin rights."},
	{auth.ErrPasswordTooShort, "Password must be at least 6 characters."},
	{store.ErrConflict, "That name is already taken."},
	{store.ErrInvalid, "Please check the form and try again."},
}

func isUserError(err error) bool {
	return userMessage(err) != ""
}

func userMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return ""
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
