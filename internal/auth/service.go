package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sharath018/campus-events-backend/config"
	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, *User, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ParseAccessToken(token string) (uint, error)
	GetUserByID(ctx context.Context, userID uint) (*User, error)
	GetUserByFirebaseUID(ctx context.Context, uid string) (*User, error)
	ProvisionFirebaseUser(ctx context.Context, uid, email, name string) (*User, error)
}

type service struct {
	repo          Repository
	clock         utils.Clock
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(r Repository, cfg *config.Config, clock utils.Clock) Service {
	return &service{
		repo:          r,
		clock:         clock,
		accessSecret:  cfg.JWTAccessSecret,
		refreshSecret: cfg.JWTRefreshSecret,
		accessTTL:     time.Duration(cfg.JWTAccessTTLHours) * time.Hour,
		refreshTTL:    time.Duration(cfg.JWTRefreshTTLHours) * time.Hour,
	}
}

// =============================
// Register
// =============================

type RegisterInput struct {
	FullName   string
	Email      string
	Password   string
	Role       string
	University string
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = RoleSimpleUser
	}
	// Elevated roles are granted through role requests only.
	if role != RoleSimpleUser && role != RoleStudent {
		return nil, apperror.Validation("", "only simple_user or student can self-register")
	}
	if role == RoleStudent && strings.TrimSpace(in.University) == "" {
		return nil, apperror.Validation("", "university is required for students")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         role,
		Preferences:  DefaultPreferences(),
	}
	if role == RoleStudent {
		user.University = strings.TrimSpace(in.University)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeDuplicate, "email already registered")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// =============================
// Login
// =============================

type LoginInput struct {
	Email    string
	Password string
}

func (s *service) Login(ctx context.Context, in LoginInput) (*TokenPair, *User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil, apperror.NotFound("Couldn't find your Account")
		}
		return nil, nil, apperror.Internal(err)
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, nil, apperror.Validation("", "invalid credentials")
	}

	accessToken, err := s.sign(user.ID, user.Role, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	refreshToken, err := s.sign(user.ID, user.Role, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

func (s *service) sign(userID uint, role, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     s.clock.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// =============================
// Refresh
// =============================

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.parse(refreshToken, s.refreshSecret)
	if err != nil {
		return "", apperror.Validation("", "invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", apperror.NotFound("user not found")
	}

	token, err := s.sign(user.ID, user.Role, s.accessSecret, s.accessTTL)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return token, nil
}

func (s *service) ParseAccessToken(token string) (uint, error) {
	return s.parse(token, s.accessSecret)
}

func (s *service) parse(raw, secret string) (uint, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("user_id missing in token")
	}
	return uint(userID), nil
}

// =============================
// Lookups
// =============================

func (s *service) GetUserByID(ctx context.Context, userID uint) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

func (s *service) GetUserByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	u, err := s.repo.FindByFirebaseUID(ctx, uid)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

// ProvisionFirebaseUser returns the user bound to uid, creating a simple_user on first sight.
func (s *service) ProvisionFirebaseUser(ctx context.Context, uid, email, name string) (*User, error) {
	u, err := s.GetUserByFirebaseUID(ctx, uid)
	if err == nil {
		return u, nil
	}
	if apperror.KindOf(err) != apperror.KindNotFound {
		return nil, err
	}

	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	fuid := uid
	user := &User{
		FullName:    name,
		Email:       strings.ToLower(email),
		FirebaseUID: &fuid,
		Role:        RoleSimpleUser,
		Preferences: DefaultPreferences(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			// lost a race with a concurrent first request
			return s.GetUserByFirebaseUID(ctx, uid)
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}
