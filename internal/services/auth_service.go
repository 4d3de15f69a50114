package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// Messages shown to clients by the credential service.
const (
	MsgUserExists         = "User already exists. Please try with different username or email."
	MsgInvalidCredentials = "Invalid username or password"
	MsgUserDoesNotExist   = "User doesn't exist"
	MsgInvalidPassword    = "Invalid password"
	MsgUserNotFound       = "User not found"
	MsgWrongOldPassword   = "Old password entered not correct."
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload of an access token.
type Claims struct {
	UserID string      `json:"userID"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// AuthOptions configures an AuthService.
type AuthOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	// ConcealLoginFailure reports an unknown email and a wrong password
	// identically, so login cannot be used to enumerate accounts.
	ConcealLoginFailure bool
	Logger              *zap.Logger
	// Now overrides the clock used to issue and check tokens.
	Now func() time.Time
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	logger   *zap.Logger

	jwtSecret []byte
	tokenTTL  time.Duration
	conceal   bool
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher, opts AuthOptions) *AuthService {
	s := &AuthService{
		userRepo:  userRepo,
		hasher:    hasher,
		logger:    opts.Logger,
		jwtSecret: []byte(opts.JWTSecret),
		tokenTTL:  opts.TokenTTL,
		conceal:   opts.ConcealLoginFailure,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 15 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// RegisterUser creates a user unless the username or email is taken.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err == nil && existing != nil {
		return nil, apperror.NewConflictError(MsgUserExists, nil)
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.NewInternalError("failed to check existing users", err)
	}

	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same identity.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.NewConflictError(MsgUserExists, err)
		}
		return nil, apperror.NewInternalError("failed to register user", err)
	}

	s.logger.Info("user registered", zap.String("userID", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// LoginUser verifies the credentials and issues an access token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		if s.conceal {
			return "", apperror.NewNotFoundError(MsgInvalidCredentials, nil)
		}
		return "", apperror.NewNotFoundError(MsgUserDoesNotExist, nil)
	}
	if err != nil {
		return "", apperror.NewInternalError("failed to load user", err)
	}

	match, err := s.hasher.Compare(ctx, user.Password, password)
	if err != nil {
		return "", apperror.NewInternalError("failed to verify password", err)
	}
	if !match {
		if s.conceal {
			return "", apperror.NewNotFoundError(MsgInvalidCredentials, nil)
		}
		return "", apperror.NewUnauthorizedError(MsgInvalidPassword, nil)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", apperror.NewInternalError("failed to generate token", err)
	}
	return token, nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NewNotFoundError(MsgUserNotFound, nil)
	}
	if err != nil {
		return apperror.NewInternalError("failed to load user", err)
	}

	match, err := s.hasher.Compare(ctx, user.Password, oldPassword)
	if err != nil {
		return apperror.NewInternalError("failed to verify password", err)
	}
	if !match {
		return apperror.NewBadRequestError(MsgWrongOldPassword, nil)
	}

	hashed, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return apperror.NewInternalError("failed to hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NewNotFoundError(MsgUserNotFound, nil)
		}
		return apperror.NewInternalError("failed to update password", err)
	}
	return nil
}

// EnsureAdmin creates an admin account from the given credentials when no
// admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	count, err := s.userRepo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if _, err := s.RegisterUser(ctx, RegisterInput{
		Username: "admin",
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

// IssueToken signs an access token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken checks the signature and expiry of tokenString and returns
// its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	// Expiry is checked below against the service clock.
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
