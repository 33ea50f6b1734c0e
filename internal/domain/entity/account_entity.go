package entity

import "time"

// Provider names the method used to establish an Account.
type Provider string

const (
	ProviderEmail    Provider = "EMAIL"
	ProviderGoogle   Provider = "GOOGLE"
	ProviderGithub   Provider = "GITHUB"
	ProviderFacebook Provider = "FACEBOOK"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderGoogle, ProviderGithub, ProviderFacebook:
		return true
	}
	return false
}

// Account links a User to a provider identity.
// (Provider, ProviderID) is unique across all accounts.
type Account struct {
	ID         string
	UserID     string
	Provider   Provider
	ProviderID string
	CreatedAt  time.Time
}
