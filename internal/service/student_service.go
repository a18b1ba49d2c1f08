package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-records/internal/dto"
	"github.com/noah-isme/student-records/internal/models"
	"github.com/noah-isme/student-records/internal/repository"
	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/validator"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Update(ctx context.Context, student *models.Student, address *models.Address) error
	Delete(ctx context.Context, id string) error
}

var errStudentNotFound = appErrors.Clone(appErrors.ErrNotFound, "Student not found")

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validator
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(repo studentRepository, validate *validator.Validator, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns students in insertion order. Only the unfiltered roster is cached.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]dto.StudentResponse, bool, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	cacheable := filter.Search == "" && filter.Status == ""

	if cacheable {
		var cached []dto.StudentResponse
		if s.cache.Get(ctx, repository.StudentListKey(), &cached) {
			return cached, true, nil
		}
	}

	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list students")
	}
	students := dto.NewStudentResponses(details)
	if cacheable {
		s.cache.Set(ctx, repository.StudentListKey(), students, s.cacheTTL)
	}
	return students, false, nil
}

// Get returns a single student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentResponse, bool, error) {
	var cached dto.StudentResponse
	if s.cache.Get(ctx, repository.StudentDetailKey(id), &cached) {
		return &cached, true, nil
	}

	detail, err := s.find(ctx, id)
	if err != nil {
		return nil, false, err
	}
	student := dto.NewStudentResponse(*detail)
	s.cache.Set(ctx, repository.StudentDetailKey(id), student, s.cacheTTL)
	return &student, false, nil
}

// Update applies a partial update and returns the stored record.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req, "invalid student payload"); err != nil {
		return nil, err
	}
	if req.Address != nil {
		if err := s.validator.Struct(req.Address, "invalid student address"); err != nil {
			return nil, err
		}
	}

	detail, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	student := detail.Student

	if err := s.apply(ctx, &student, req); err != nil {
		return nil, err
	}

	var address *models.Address
	if req.Address != nil {
		address = &models.Address{
			StudentID: id,
			Street:    strings.TrimSpace(req.Address.Street),
			City:      strings.TrimSpace(req.Address.City),
			State:     strings.TrimSpace(req.Address.State),
			ZipCode:   strings.TrimSpace(req.Address.ZipCode),
		}
	}

	if err := s.repo.Update(ctx, &student, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		if errors.Is(err, repository.ErrEmailConflict) {
			return nil, appErrors.Clone(appErrors.ErrEmailTaken, "Email already in use")
		}
		return nil, appErrors.Internal(err, "failed to update student")
	}
	s.cache.Invalidate(ctx, repository.StudentKeyPattern())

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student updated", zap.String("student_id", id))
	resp := dto.NewStudentResponse(*updated)
	return &resp, nil
}

// Delete removes a student permanently.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errStudentNotFound
		}
		return appErrors.Internal(err, "failed to delete student")
	}
	s.cache.Invalidate(ctx, repository.StudentKeyPattern())
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) find(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return detail, nil
}

func (s *StudentService) apply(ctx context.Context, student *models.Student, req dto.UpdateStudentRequest) error {
	details := make(map[string]string)

	if req.FirstName != nil {
		student.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		student.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		student.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Major != nil {
		student.Major = strings.TrimSpace(*req.Major)
	} else if req.Department != nil {
		student.Major = strings.TrimSpace(*req.Department)
	}
	if req.Year != nil {
		student.Year = models.StudentYear(*req.Year)
	}
	if req.Status != nil {
		student.Status = models.StudentStatus(*req.Status)
	}
	if req.GPA != nil {
		student.GPA = *req.GPA
	}
	if req.DateOfBirth != nil {
		d, err := dto.ParseDate(*req.DateOfBirth)
		if err != nil {
			details["dateOfBirth"] = "dateOfBirth must be a date (YYYY-MM-DD)"
		} else {
			student.DateOfBirth = d
		}
	}
	if req.EnrollmentDate != nil {
		d, err := dto.ParseDate(*req.EnrollmentDate)
		if err != nil {
			details["enrollmentDate"] = "enrollmentDate must be a date (YYYY-MM-DD)"
		} else {
			student.EnrollmentDate = d
		}
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid student payload"), details)
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != student.Email {
			taken, err := s.repo.ExistsByEmail(ctx, email, student.ID)
			if err != nil {
				return appErrors.Internal(err, "failed to check email")
			}
			if taken {
				return appErrors.Clone(appErrors.ErrEmailTaken, "Email already in use")
			}
			student.Email = email
		}
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return appErrors.Internal(err, "failed to hash password")
		}
		student.PasswordHash = string(hash)
	}
	return nil
}
