// Package sso implements external sign-in providers.
package sso

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/domain/entity"
)

const googleIssuer = "https://accounts.google.com"

var (
	ErrMissingCode    = errors.New("missing authorization code")
	ErrMissingIDToken = errors.New("missing id_token in response")
	ErrUnverified     = errors.New("email not verified by provider")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider signs users in with Google's OpenID Connect endpoint.
type GoogleProvider struct {
	verifier *oidc.IDTokenVerifier
	oauth2   *oauth2.Config
}

// NewGoogleProvider discovers Google's endpoints; it needs network access.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return newGoogleProvider(provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), provider.Endpoint(), cfg), nil
}

func newGoogleProvider(verifier *oidc.IDTokenVerifier, endpoint oauth2.Endpoint, cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		verifier: verifier,
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades the callback code for a verified identity.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*application.ProviderIdentity, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	tok, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrMissingIDToken
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	var c googleClaims
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	if !c.EmailVerified {
		return nil, ErrUnverified
	}
	return &application.ProviderIdentity{
		Provider:    entity.ProviderGoogle,
		ProviderID:  c.Subject,
		DisplayName: c.Name,
		Picture:     c.Picture,
		Email:       c.Email,
	}, nil
}
