package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrInvalidEmailFormat    = errors.New("Invalid email format")
	ErrInvalidPasswordFormat = errors.New("Password must be at least 8 characters with a letter, a number and a special character")
	ErrInvalidName           = errors.New("First and last name are required (letters, spaces, hyphens and apostrophes only)")
	ErrEmailTaken            = errors.New("Email already registered")
)
