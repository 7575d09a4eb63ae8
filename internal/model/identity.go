package model

import (
	"net/url"
	"time"
)

// IdentityID uniquely identifies a registered user
type IdentityID string

// Gender selects the generated avatar style
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is a supported gender
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

const avatarBaseURL = "https://avatar.iran.liara.run/public/"

// AvatarURL derives the profile image URL for a username and gender.
// The result is stored on the identity at creation and never recomputed.
func AvatarURL(username string, gender Gender) string {
	style := "boy"
	if gender == GenderFemale {
		style = "girl"
	}
	return avatarBaseURL + style + "?username=" + url.QueryEscape(username)
}

// Identity is a registered user and their durable attributes
type Identity struct {
	ID              IdentityID
	Username        string // unique, case-sensitive
	DisplayName     string
	PasswordHash    string // never leaves the credential store boundary
	Gender          Gender
	ProfileImageURL string
	CreatedAt       time.Time
}
