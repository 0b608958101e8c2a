package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/users"
	pkgAuth "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/auth"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/auth/session"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Identity carries the request-scoped attributes used for rate limiting and
// guest cart migration.
type Identity struct {
	SessionID string
	ClientIP  string
}

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest, ident Identity) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest, ident Identity) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type cartMigrator interface {
	Migrate(ctx context.Context, sessionID string, userID uuid.UUID) (cart.MigrationResult, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	RateLimiter    rateLimiter
	CartMigrator   cartMigrator
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	RateLimits     config.AuthRateLimitConfig
}

type service struct {
	users    userRepository
	session  sessionManager
	limiter  rateLimiter
	migrator cartMigrator
	logg     *logger.Logger
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	limits   config.AuthRateLimitConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.RateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if params.CartMigrator == nil {
		return nil, fmt.Errorf("cart migrator is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:    params.UserRepo,
		session:  params.SessionManager,
		limiter:  params.RateLimiter,
		migrator: params.CartMigrator,
		logg:     params.Logger,
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.PasswordConfig,
		limits:   params.RateLimits,
	}, nil
}

// Register creates the account, signs the user in, and folds any guest cart
// into the new user's cart.
func (s *service) Register(ctx context.Context, req RegisterRequest, ident Identity) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.allow(ctx, "register:email:"+email, int64(s.limits.RegisterEmailLimit), s.limits.RegisterWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "register:ip:"+ident.ClientIP, int64(s.limits.RegisterIPLimit), s.limits.RegisterWindow); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.establishSession(ctx, user, ident)
}

// Login authenticates the credentials, rotates in a fresh session, and
// migrates any guest cart tied to the visitor session.
func (s *service) Login(ctx context.Context, req LoginRequest, ident Identity) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.allow(ctx, "login:email:"+email, int64(s.limits.LoginEmailLimit), s.limits.LoginWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "login:ip:"+ident.ClientIP, int64(s.limits.LoginIPLimit), s.limits.LoginWindow); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, user, ident)
}

// Refresh rotates the refresh token pair using the prior access token's jti.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

// Logout revokes the refresh session tied to the access token.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "access token missing")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Me returns the authenticated user's profile.
func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) establishSession(ctx context.Context, user *models.User, ident Identity) (*AuthResponse, error) {
	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	resp := &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}

	if strings.TrimSpace(ident.SessionID) != "" {
		result, err := s.migrator.Migrate(ctx, ident.SessionID, user.ID)
		if err != nil {
			// Login succeeds even when the guest cart cannot be read.
			s.logg.Error(ctx, "guest cart migration failed", err)
		} else if result.Migrated > 0 || len(result.Skipped) > 0 {
			resp.CartMigration = &result
		}
	}
	return resp, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int64, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		// Rate limiting is advisory; Redis being down must not lock users out.
		s.logg.Warn(ctx, "rate limiter unavailable")
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, slow down")
	}
	return nil
}
