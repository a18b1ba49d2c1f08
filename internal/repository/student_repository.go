package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/student-records/internal/models"
)

const studentDetailColumns = `s.id, s.first_name, s.last_name, s.email, s.phone, s.date_of_birth, s.enrollment_date, s.major, s.year, s.gpa, s.status, s.created_at, s.updated_at,
        a.street, a.city, a.state, a.zip_code`

// ErrEmailConflict reports that another account already holds the email.
// It backs up the service-level check when two writes race past it.
var ErrEmailConflict = errors.New("email already registered")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// StudentRepository manages persistence for student accounts and profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters, oldest first.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", n, n, n))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := "SELECT " + studentDetailColumns + "\n        FROM students s LEFT JOIN student_addresses a ON a.student_id = s.id"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.created_at ASC, s.id ASC"

	students := make([]models.StudentDetail, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student joined with its address.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := "SELECT " + studentDetailColumns + "\n        FROM students s LEFT JOIN student_addresses a ON a.student_id = s.id WHERE s.id = $1"
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// FindByEmail returns the account row including the password hash.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, email, phone, password_hash, date_of_birth, enrollment_date, major, year, gpa, status, created_at, updated_at FROM students WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by email: %w", err)
	}
	return &student, nil
}

// ExistsByEmail checks if an email is taken, optionally excluding one student.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

// Create inserts a new student account.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Year == "" {
		student.Year = models.YearFreshman
	}
	if student.Status == "" {
		student.Status = models.StatusActive
	}
	const query = `INSERT INTO students (id, first_name, last_name, email, phone, password_hash, date_of_birth, enrollment_date, major, year, gpa, status, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :phone, :password_hash, :date_of_birth, :enrollment_date, :major, :year, :gpa, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailConflict
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update writes the profile and upserts the address in one transaction.
// A nil address leaves any stored address untouched, as does an empty PasswordHash.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student, address *models.Address) (err error) {
	student.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE students SET first_name = $2, last_name = $3, email = $4, phone = $5, password_hash = COALESCE(NULLIF($6, ''), password_hash), date_of_birth = $7, enrollment_date = $8, major = $9, year = $10, gpa = $11, status = $12, updated_at = $13 WHERE id = $1`
	res, err := tx.ExecContext(ctx, updateQuery,
		student.ID, student.FirstName, student.LastName, student.Email, student.Phone, student.PasswordHash,
		student.DateOfBirth, student.EnrollmentDate, student.Major, student.Year, student.GPA, student.Status, student.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailConflict
		}
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if address != nil {
		const upsert = `INSERT INTO student_addresses (student_id, street, city, state, zip_code) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (student_id) DO UPDATE SET street = EXCLUDED.street, city = EXCLUDED.city, state = EXCLUDED.state, zip_code = EXCLUDED.zip_code`
		if _, err = tx.ExecContext(ctx, upsert, student.ID, address.Street, address.City, address.State, address.ZipCode); err != nil {
			return fmt.Errorf("upsert student address: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// Delete removes a student; the address goes with it via ON DELETE CASCADE.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
