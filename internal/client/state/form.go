package state

import (
	"net/mail"
	"strings"
)

// MinPasswordLength matches the gateway's registration rule.
const MinPasswordLength = 8

// StudentForm is the editable shape of a student. Password fields never appear on a Record.
type StudentForm struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	DateOfBirth     string
	EnrollmentDate  string
	Major           string
	Year            Year
	GPA             float64
	Status          Status
	Address         Address
	Password        string
	ConfirmPassword string
}

// FormFromRecord prefills a form for editing, cleaning up whatever the record picked up in transit.
func FormFromRecord(r Record) StudentForm {
	r = Sanitize(r)
	return StudentForm{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		DateOfBirth:    r.DateOfBirth,
		EnrollmentDate: r.EnrollmentDate,
		Major:          r.Major,
		Year:           r.Year,
		GPA:            r.GPA,
		Status:         r.Status,
		Address:        r.Address,
	}
}

// Validate returns field -> message for every problem; an empty map means the form is valid.
// A password is required in create mode and optional otherwise.
func (f StudentForm) Validate(mode EditorMode) map[string]string {
	errs := make(map[string]string)
	required := func(field, value, message string) {
		if strings.TrimSpace(value) == "" {
			errs[field] = message
		}
	}

	required("firstName", f.FirstName, "First name is required")
	required("lastName", f.LastName, "Last name is required")
	required("email", f.Email, "Email is required")
	if _, ok := errs["email"]; !ok {
		if _, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil {
			errs["email"] = "Email is invalid"
		}
	}
	required("phone", f.Phone, "Phone number is required")
	required("dateOfBirth", f.DateOfBirth, "Date of birth is required")
	required("enrollmentDate", f.EnrollmentDate, "Enrollment date is required")
	required("major", f.Major, "Major is required")
	if f.GPA < 0 || f.GPA > 4 {
		errs["gpa"] = "GPA must be between 0.0 and 4.0"
	}
	required("street", f.Address.Street, "Street address is required")
	required("city", f.Address.City, "City is required")
	required("state", f.Address.State, "State is required")
	required("zipCode", f.Address.ZipCode, "ZIP code is required")

	switch {
	case mode == ModeCreate && f.Password == "":
		errs["password"] = "Password is required"
	case f.Password != "" && len(f.Password) < MinPasswordLength:
		errs["password"] = "Password must be at least 8 characters"
	}
	if mode == ModeCreate || f.Password != "" {
		switch {
		case f.ConfirmPassword == "":
			errs["confirmPassword"] = "Please confirm your password"
		case f.ConfirmPassword != f.Password:
			errs["confirmPassword"] = "Passwords do not match"
		}
	}

	return errs
}
