package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-presensi/internal/metrics"
	"go-presensi/internal/model"
	"go-presensi/internal/revocation"
	"go-presensi/pkg/apierror"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

type AuthConfig struct {
	Secret     string
	Issuer     string
	TTL        time.Duration
	BcryptCost int
}

type AuthService struct {
	users      UserStore
	revoked    revocation.Store
	metrics    *metrics.Metrics
	jwtSecret  []byte
	issuer     string
	accessTTL  time.Duration
	bcryptCost int
	now        func() time.Time
}

// tokenClaims is the signed payload: id, email and role plus the
// registered jti, iat, exp and iss claims.
type tokenClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(users UserStore, revoked revocation.Store, cfg AuthConfig, m *metrics.Metrics) *AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if revoked == nil {
		revoked = revocation.NewMemoryStore()
	}

	return &AuthService{
		users:      users,
		revoked:    revoked,
		metrics:    m,
		jwtSecret:  []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  ttl,
		bcryptCost: cost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthUser, error) {
	email := strings.TrimSpace(req.Email)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	if email == "" || req.Password == "" {
		return model.AuthUser{}, apierror.Validation("email and password are required", "")
	}
	if role == "" {
		role = model.RoleMahasiswa
	}
	if !model.ValidRole(role) {
		return model.AuthUser{}, apierror.InvalidRole(role)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.AuthUser{}, err
	}
	if exists {
		return model.AuthUser{}, apierror.DuplicateEmail(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.AuthUser{}, apierror.Validation("password must be at most 72 bytes", "")
	}
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        model.NormalizeEmail(email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.AuthUser{}, apierror.DuplicateEmail(email)
		}
		return model.AuthUser{}, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (result model.LoginResult, err error) {
	defer func() { s.metrics.Login(err) }()

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return model.LoginResult{}, apierror.Validation("email and password are required", "")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginResult{}, apierror.NotFound("email is not registered", email)
	}
	if err != nil {
		return model.LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.LoginResult{}, apierror.InvalidCredentials()
	}

	token, err := s.issueToken(user)
	if err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.accessTTL.Seconds()),
		User:      user.Public(),
	}, nil
}

// ValidateToken verifies signature, algorithm, issuer and expiry, then
// rejects tokens revoked by Logout.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*model.AuthClaims, error) {
	claims := &tokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		details := "token is not valid"
		if err != nil {
			details = err.Error()
		}
		return nil, apierror.InvalidToken(details)
	}

	if claims.UserID == "" || claims.RegisteredClaims.ID == "" {
		return nil, apierror.InvalidToken("token is missing id or jti")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, apierror.InvalidToken("token has been revoked")
	}

	return &model.AuthClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.RegisteredClaims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *model.AuthClaims) error {
	if claims == nil || claims.TokenID == "" {
		return apierror.InvalidToken("no token to revoke")
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revoked.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return err
	}

	slog.Info("token revoked", "user_id", claims.UserID, "jti", claims.TokenID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, claims *model.AuthClaims) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AuthUser{}, apierror.InvalidToken("token subject no longer exists")
	}
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

// EnsureSeedAdmin creates an admin account for email unless that email is
// already registered.
func (s *AuthService) EnsureSeedAdmin(ctx context.Context, email string, password string) (bool, error) {
	_, err := s.Register(ctx, model.RegisterRequest{
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
		Name:     "Administrator",
	})

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.Code == apierror.CodeDuplicateEmail {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

func (s *AuthService) issueToken(user model.User) (string, error) {
	now := s.now()

	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
