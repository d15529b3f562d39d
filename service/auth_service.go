package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"auctionhouse/config"
	"auctionhouse/events"
	"auctionhouse/models"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Token types carried in the "typ" claim
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// authService handles registration, login under the lockout policy, and tokens
type authService struct {
	uowFactory       UnitOfWorkFactory
	jwtSecret        []byte
	jwtTTL           time.Duration
	refreshTTL       time.Duration
	bcryptCost       int
	lockoutThreshold int
	lockoutDuration  time.Duration
	now              func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(uowFactory UnitOfWorkFactory, cfg *config.Config) AuthService {
	return &authService{
		uowFactory:       uowFactory,
		jwtSecret:        []byte(cfg.JWTSecret),
		jwtTTL:           cfg.JWTTTL,
		refreshTTL:       cfg.JWTRefreshTTL,
		bcryptCost:       cfg.BcryptCost,
		lockoutThreshold: cfg.LockoutThreshold,
		lockoutDuration:  cfg.LockoutDuration,
		now:              time.Now,
	}
}

// Register creates a new account with a zero balance and the default role
func (s *authService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if isBlank(username) || isBlank(email) || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	taken, err := uow.UserRepository().ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username or email already registered", ErrValidation)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      0,
		Roles:        []string{models.RoleUser},
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("username", username).Info("User registered")
	return user, nil
}

// Login verifies credentials and returns a signed token pair.
// The user row is locked so concurrent failures count exactly once each.
func (s *authService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsernameForUpdate(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	dirty := false
	if user.AccountLocked {
		if !s.lockExpired(user, now) {
			return nil, fmt.Errorf("%w: try again later", ErrAccountLocked)
		}
		user.AccountLocked = false
		user.FailedAttempts = 0
		user.LockTime = nil
		dirty = true
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("failed to compare password: %w", err)
		}
		s.recordFailure(user, now)
		if err := uow.UserRepository().UpdateLockout(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to record failed login: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedAttempts != 0 {
		user.FailedAttempts = 0
		dirty = true
	}
	if dirty {
		if err := uow.UserRepository().UpdateLockout(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to reset failed logins: %w", err)
		}
	}

	tokens, err := s.issueTokens(user, now)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tokens, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The account must
// still exist and must not be locked.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	now := s.now()

	username, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.AccountLocked && !s.lockExpired(user, now) {
		return nil, fmt.Errorf("%w: try again later", ErrAccountLocked)
	}

	return s.issueTokens(user, now)
}

// ChangePassword checks the current password and stores a hash of the new one
func (s *authService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsernameForUpdate(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, username)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("failed to compare password: %w", err)
		}
		return fmt.Errorf("%w: old password incorrect", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := uow.UserRepository().UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("username", username).Info("Password changed")
	return nil
}

// ValidateToken parses and validates an access token and returns its subject
func (s *authService) ValidateToken(tokenString string) (string, error) {
	return s.parseToken(tokenString, tokenTypeAccess)
}

// parseToken verifies the signature, expiry and token type
func (s *authService) parseToken(tokenString, wantType string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	if typ, _ := claims["typ"].(string); typ != wantType {
		return "", ErrInvalidCredentials
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidCredentials
	}
	return sub, nil
}

// lockExpired reports whether a locked account may try again. A lock without a
// timestamp never expires on its own.
func (s *authService) lockExpired(user *models.User, now time.Time) bool {
	if user.LockTime == nil {
		return false
	}
	return now.After(user.LockTime.Add(s.lockoutDuration))
}

func (s *authService) recordFailure(user *models.User, now time.Time) {
	user.FailedAttempts++
	if user.FailedAttempts >= s.lockoutThreshold {
		user.AccountLocked = true
		user.LockTime = &now

		log.WithFields(log.Fields{
			"username": user.Username,
			"attempts": user.FailedAttempts,
		}).Warn("Account locked after repeated failed logins")
	}
}

func (s *authService) issueTokens(user *models.User, now time.Time) (*models.TokenPair, error) {
	access, err := s.generateJWT(user, tokenTypeAccess, now, s.jwtTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.generateJWT(user, tokenTypeRefresh, now, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) generateJWT(user *models.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.Username,
		"typ":   tokenType,
		"roles": user.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}
