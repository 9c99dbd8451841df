package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
)

// Identity is what a verified Firebase ID token tells us about the caller.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// IdentityVerifier checks third-party ID tokens. FirebaseAuth implements it.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (Identity, error)
}

// FirebaseAuth verifies ID tokens and mirrors roles into custom claims so
// clients can gate UI without a round trip.
type FirebaseAuth struct {
	client *fbauth.Client
	log    zerolog.Logger
}

func NewFirebaseAuth(ctx context.Context, app *firebase.App, log zerolog.Logger) (*FirebaseAuth, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseAuth{client: client, log: log.With().Str("component", "firebase-auth").Logger()}, nil
}

func (f *FirebaseAuth) VerifyIDToken(ctx context.Context, idToken string) (Identity, error) {
	tok, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// SetRole publishes the user's role as a custom claim. Users without a
// Firebase account are skipped.
func (f *FirebaseAuth) SetRole(ctx context.Context, user User) error {
	if user.FirebaseUID == nil || *user.FirebaseUID == "" {
		return nil
	}
	if err := f.client.SetCustomUserClaims(ctx, *user.FirebaseUID, map[string]interface{}{"role": user.Role}); err != nil {
		return fmt.Errorf("set role claim for %s: %w", *user.FirebaseUID, err)
	}
	f.log.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("🔑 role claim updated")
	return nil
}
