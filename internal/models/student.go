package models

import "time"

// StudentYear is the academic standing of a student.
type StudentYear string

const (
	YearFreshman  StudentYear = "Freshman"
	YearSophomore StudentYear = "Sophomore"
	YearJunior    StudentYear = "Junior"
	YearSenior    StudentYear = "Senior"
)

// StudentStatus is the enrollment state of a student.
type StudentStatus string

const (
	StatusActive    StudentStatus = "Active"
	StatusInactive  StudentStatus = "Inactive"
	StatusGraduated StudentStatus = "Graduated"
	StatusSuspended StudentStatus = "Suspended"
)

// Student is a registered account and its academic profile; the two share one row.
type Student struct {
	ID             string        `db:"id" json:"id"`
	FirstName      string        `db:"first_name" json:"firstName"`
	LastName       string        `db:"last_name" json:"lastName"`
	Email          string        `db:"email" json:"email"`
	Phone          string        `db:"phone" json:"phone"`
	PasswordHash   string        `db:"password_hash" json:"-"`
	DateOfBirth    *time.Time    `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	EnrollmentDate *time.Time    `db:"enrollment_date" json:"enrollmentDate,omitempty"`
	Major          string        `db:"major" json:"major"`
	Year           StudentYear   `db:"year" json:"year"`
	GPA            float64       `db:"gpa" json:"gpa"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name, skipping blanks.
func (s Student) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	default:
		return s.FirstName + " " + s.LastName
	}
}

// Address is the one-to-one postal address of a student.
type Address struct {
	StudentID string `db:"student_id" json:"-"`
	Street    string `db:"street" json:"street"`
	City      string `db:"city" json:"city"`
	State     string `db:"state" json:"state"`
	ZipCode   string `db:"zip_code" json:"zipCode"`
}

// StudentDetail is a student joined with its (possibly missing) address.
type StudentDetail struct {
	Student
	Street  *string `db:"street"`
	City    *string `db:"city"`
	State   *string `db:"state"`
	ZipCode *string `db:"zip_code"`
}

// Address returns the joined address, empty when none was stored.
func (d StudentDetail) Address() Address {
	return Address{
		StudentID: d.ID,
		Street:    deref(d.Street),
		City:      deref(d.City),
		State:     deref(d.State),
		ZipCode:   deref(d.ZipCode),
	}
}

// StudentFilter narrows list queries.
type StudentFilter struct {
	Search string
	Status StudentStatus
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
