package userprofile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
)

type Service interface {
	Get(ctx context.Context, userID uint) (*auth.User, error)
	// UpdateProfile applies patch keys allowed for the user's role. Any other
	// key fails the whole update.
	UpdateProfile(ctx context.Context, userID uint, patch map[string]any) (*auth.User, error)
	UpdatePreferences(ctx context.Context, userID uint, in PreferencesInput) (*auth.User, error)
}

type service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{repo: repo, log: log.With().Str("component", "profiles").Logger()}
}

func (s *service) Get(ctx context.Context, userID uint) (*auth.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, patch map[string]any) (*auth.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	fields, err := merge(AllowedProfileFields[u.Role], patch)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return u, nil
	}

	updated, err := s.repo.Apply(ctx, userID, fields)
	if err != nil {
		return nil, notFoundOr(err)
	}
	s.log.Info().Uint("user_id", userID).Int("fields", len(fields)).Msg("👤 profile updated")
	return updated, nil
}

func (s *service) UpdatePreferences(ctx context.Context, userID uint, in PreferencesInput) (*auth.User, error) {
	cols := in.columns()
	if len(cols) == 0 {
		return s.Get(ctx, userID)
	}
	u, err := s.repo.Apply(ctx, userID, cols)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return u, nil
}

// merge turns an allowed patch into column updates. Values are trimmed
// strings and may not be blank.
func merge(allowed []string, patch map[string]any) (map[string]interface{}, error) {
	permitted := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		permitted[f] = true
	}
	out := make(map[string]interface{}, len(patch))
	for name, raw := range patch {
		if !permitted[name] {
			return nil, apperror.Forbidden(apperror.CodeForbidden, fmt.Sprintf("Field '%s' cannot be changed for your role", name))
		}
		v, ok := raw.(string)
		if !ok {
			return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("Field '%s' must be text", name))
		}
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("Field '%s' cannot be empty", name))
		}
		out[columns[name]] = v
	}
	return out, nil
}

func notFoundOr(err error) error {
	if database.IsNotFound(err) {
		return apperror.NotFound("User not found")
	}
	return apperror.Internal(err)
}
