package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flashdeal/internal/apperr"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
	"flashdeal/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, zap.NewNop())

	in := services.RegisterInput{Username: "testuser", Email: "test@example.com", Password: "password123", Role: models.RoleBuyer}

	// Successful registration
	mockRepo.On("GetByUsername", ctx, "testuser").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Username already taken
	mockRepo.On("GetByUsername", ctx, "testuser").Return(&models.User{ID: 1}, nil).Once()
	_, err = authService.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "username 'testuser' already taken")
	mockRepo.AssertExpectations(t)

	// Concurrent registration loses on the unique index
	mockRepo.On("GetByUsername", ctx, "testuser").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)).Once()
	_, err = authService.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	mockRepo.AssertExpectations(t)

	// Unknown role never reaches the repository
	bad := in
	bad.Role = "Root"
	_, err = authService.Register(ctx, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, zap.NewNop())

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:           123,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
		Role:         models.RoleSeller,
	}

	// Successful login
	mockRepo.On("GetByUsername", ctx, user.Username).Return(user, nil).Once()
	token, got, err := authService.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)

	parsed := &services.Claims{}
	_, err = jwt.ParseWithClaims(token, parsed, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(123), parsed.UserID)
	assert.Equal(t, "testuser", parsed.Username)
	assert.Equal(t, models.RoleSeller, parsed.Role)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), parsed.ExpiresAt, 5)
	mockRepo.AssertExpectations(t)

	// Wrong password
	mockRepo.On("GetByUsername", ctx, user.Username).Return(user, nil).Once()
	_, _, err = authService.Login(ctx, "testuser", "wrongpassword")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)

	// Unknown user gets the same generic message
	mockRepo.On("GetByUsername", ctx, "nonexistentuser").Return(nil, notFound("user")).Once()
	_, _, err = authService.Login(ctx, "nonexistentuser", "password123")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour, zap.NewNop())

	sign := func(claims services.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	valid := sign(services.Claims{
		UserID:         7,
		Username:       "testuser",
		Role:           models.RoleBuyer,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}, testJWTSecret)

	claims, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, services.Principal{UserID: 7, Username: "testuser", Role: models.RoleBuyer}, claims.Principal())

	// Garbage
	_, err = authService.ValidateToken("invalid.token.string")
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	// Wrong secret
	_, err = authService.ValidateToken(sign(services.Claims{UserID: 7}, "other-secret"))
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))

	// Expired
	expired := sign(services.Claims{
		UserID:         7,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()},
	}, testJWTSecret)
	_, err = authService.ValidateToken(expired)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
}
