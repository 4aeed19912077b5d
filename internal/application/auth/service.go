package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appcart "shopd/internal/application/cart"
	"shopd/internal/domain/user"
	"shopd/internal/pkg/logging"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrValidation         = errors.New("auth: missing or malformed fields")
)

type IDGenerator interface {
	NewID() string
}

// Claims is the bearer credential payload. TokenVersion ties a token to the
// user's current credential generation so logout and re-login revoke
// everything issued before.
type Claims struct {
	UserID       string   `json:"uid"`
	Roles        []string `json:"roles"`
	TokenVersion int      `json:"tv"`
	jwt.RegisteredClaims
}

// Service owns registration, login/logout and bearer-credential resolution.
// It triggers the cart merge when a caller brings an anonymous session
// identity across the login boundary.
type Service struct {
	users  user.Repository
	carts  *appcart.Service
	ids    IDGenerator
	secret []byte
	ttl    time.Duration
}

func NewService(users user.Repository, carts *appcart.Service, ids IDGenerator, secret string, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		carts:  carts,
		ids:    ids,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	SessionID string
}

type Result struct {
	User  *user.User
	Token string
}

// Register creates a user, issues a credential and merges any anonymous cart
// the caller brought along. The very first registered user becomes the
// super admin, everyone after that a client.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	if in.Name == "" || !strings.Contains(in.Email, "@") || in.Password == "" {
		return nil, ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u, err := user.New(s.ids.NewID(), in.Name, in.Email, string(hash))
	if err != nil {
		return nil, err
	}

	existing, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: count users: %w", err)
	}
	if existing == 0 {
		u.Roles = []string{user.RoleSuperAdmin}
	} else {
		u.Roles = []string{user.RoleClient}
	}

	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	s.mergeCart(ctx, in.SessionID, u.ID)

	logging.FromContext(ctx).Info("user_registered",
		zap.String("user_id", u.ID),
		zap.Strings("roles", u.Roles),
	)
	return &Result{User: u, Token: token}, nil
}

// Login verifies credentials, revokes every previously issued token and
// returns a fresh one, merging an anonymous cart when a session id is given.
func (s *Service) Login(ctx context.Context, email, password, sessionID string) (*Result, error) {
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	version, err := s.users.BumpTokenVersion(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: revoke tokens: %w", err)
	}
	u.TokenVersion = version

	token, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	s.mergeCart(ctx, sessionID, u.ID)

	logging.FromContext(ctx).Info("user_logged_in", zap.String("user_id", u.ID))
	return &Result{User: u, Token: token}, nil
}

// Logout revokes every outstanding credential for the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if _, err := s.users.BumpTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	logging.FromContext(ctx).Info("user_logged_out", zap.String("user_id", userID))
	return nil
}

// Resolve maps a bearer credential to zero-or-one identity. Expired, forged,
// revoked or otherwise unusable tokens all resolve to "anonymous"; resolution
// never errors.
func (s *Service) Resolve(ctx context.Context, bearer string) (*user.User, bool) {
	if bearer == "" {
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(bearer, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, false
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, false
	}
	if u.TokenVersion != claims.TokenVersion {
		return nil, false
	}
	return u, true
}

func (s *Service) issue(u *user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       u.ID,
		Roles:        u.Roles,
		TokenVersion: u.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) mergeCart(ctx context.Context, sessionID, userID string) {
	if sessionID == "" || s.carts == nil {
		return
	}
	if err := s.carts.Merge(ctx, sessionID, userID); err != nil {
		logging.FromContext(ctx).Warn("cart_merge_failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
