package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-records/internal/models"
	"github.com/noah-isme/student-records/internal/repository"
	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/validator"
)

type authStudentRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService registers accounts and issues access tokens.
type AuthService struct {
	repo      authStudentRepository
	validator *validator.Validator
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance. cache and metrics may be nil.
func NewAuthService(repo authStudentRepository, validate *validator.Validator, cache *CacheService, metrics *MetricsService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	return &AuthService{repo: repo, validator: validate, cache: cache, metrics: metrics, logger: logger, config: config}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req, "invalid registration payload"); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrEmailTaken, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	student := &models.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrEmailConflict) {
			return nil, appErrors.Clone(appErrors.ErrEmailTaken, "")
		}
		return nil, appErrors.Internal(err, "failed to create account")
	}
	s.cache.Invalidate(ctx, repository.StudentKeyPattern())
	s.metrics.RecordRegistration()
	s.logger.Info("account registered", zap.String("student_id", student.ID))

	return s.issue(student)
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req, "invalid login payload"); err != nil {
		s.metrics.RecordLogin(LoginOutcomeRejected)
		return nil, err
	}

	student, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLogin(LoginOutcomeRejected)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		s.metrics.RecordLogin(LoginOutcomeError)
		return nil, appErrors.Internal(err, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(LoginOutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	resp, err := s.issue(student)
	if err != nil {
		s.metrics.RecordLogin(LoginOutcomeError)
		return nil, err
	}
	s.metrics.RecordLogin(LoginOutcomeSuccess)
	return resp, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// TokenTTL is the lifetime of issued access tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.config.AccessTokenExpiry
}

func (s *AuthService) issue(student *models.Student) (*models.AuthResponse, error) {
	token, err := s.generateAccessToken(student)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.config.AccessTokenExpiry.Seconds()),
		User:      models.NewUserInfo(*student),
	}, nil
}

func (s *AuthService) generateAccessToken(student *models.Student) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: student.ID,
		Email:  student.Email,
		Name:   student.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   student.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
