package models

// Identity is what the identity provider tells us about an authenticated
// user.
type Identity struct {
	UserID      string
	Email       string
	FullName    string
	AccessToken string
}
