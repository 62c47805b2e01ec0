package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flashdeal/internal/apperr"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the token payload. The token alone identifies the principal;
// nothing is kept server side.
type Claims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.StandardClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uint
	Username string
	Role     models.Role
}

// Principal returns the caller described by the claims.
func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

// RegisterInput carries a new account's fields.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log.Named("auth"),
	}
}

// Register hashes the password and saves the user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.Validation("role must be one of Admin, Seller, Buyer")
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.Conflict(fmt.Sprintf("username '%s' already taken", in.Username))
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, apperr.Internal("failed to look up username", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if repositories.IsUniqueViolation(err) {
			return nil, apperr.Conflict(fmt.Sprintf("username '%s' already taken", in.Username))
		}
		return nil, apperr.Internal("failed to register user", err)
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login checks the credentials and returns a signed token with the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, apperr.Unauthorized("invalid credentials")
		}
		return "", nil, apperr.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, apperr.Internal("failed to generate token", err)
	}
	return token, user, nil
}

// IssueToken signs a token for user that expires after the configured TTL.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateToken parses and validates a token, returning its claims.
// Expired or tampered tokens fail with an InvalidToken error.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return nil, &apperr.Error{Kind: apperr.KindInvalidToken, Message: "invalid token", Err: err}
	}
	if !token.Valid {
		return nil, apperr.InvalidToken("invalid token")
	}
	return claims, nil
}
