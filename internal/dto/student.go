package dto

import (
	"time"

	"github.com/noah-isme/student-records/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// AddressPayload is the wire form of a student address.
type AddressPayload struct {
	Street  string `json:"street" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	ZipCode string `json:"zipCode" validate:"max=20"`
}

// StudentResponse is the canonical student record returned by the gateway.
type StudentResponse struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	DateOfBirth    string         `json:"dateOfBirth"`
	EnrollmentDate string         `json:"enrollmentDate"`
	Major          string         `json:"major"`
	Year           string         `json:"year"`
	GPA            float64        `json:"gpa"`
	Status         string         `json:"status"`
	Address        AddressPayload `json:"address"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// UpdateStudentRequest is a partial update; nil fields are left untouched.
// Department is accepted as an alias of Major for older clients.
type UpdateStudentRequest struct {
	FirstName      *string         `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName       *string         `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email          *string         `json:"email" validate:"omitempty,email"`
	Phone          *string         `json:"phone" validate:"omitempty,min=10,max=20"`
	DateOfBirth    *string         `json:"dateOfBirth"`
	EnrollmentDate *string         `json:"enrollmentDate"`
	Major          *string         `json:"major" validate:"omitempty,max=100"`
	Department     *string         `json:"department" validate:"omitempty,max=100"`
	Year           *string         `json:"year" validate:"omitempty,oneof=Freshman Sophomore Junior Senior"`
	GPA            *float64        `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	Status         *string         `json:"status" validate:"omitempty,oneof=Active Inactive Graduated Suspended"`
	Address        *AddressPayload `json:"address"`
	Password       *string         `json:"password" validate:"omitempty,min=8,max=255"`
}

// DeleteStudentResponse confirms a removal.
type DeleteStudentResponse struct {
	Message string `json:"message"`
}

// NewStudentResponse maps a stored student and its address to the wire shape.
func NewStudentResponse(detail models.StudentDetail) StudentResponse {
	addr := detail.Address()
	return StudentResponse{
		ID:             detail.ID,
		FirstName:      detail.FirstName,
		LastName:       detail.LastName,
		Email:          detail.Email,
		Phone:          detail.Phone,
		DateOfBirth:    formatDate(detail.DateOfBirth),
		EnrollmentDate: formatDate(detail.EnrollmentDate),
		Major:          detail.Major,
		Year:           string(detail.Year),
		GPA:            detail.GPA,
		Status:         string(detail.Status),
		Address: AddressPayload{
			Street:  addr.Street,
			City:    addr.City,
			State:   addr.State,
			ZipCode: addr.ZipCode,
		},
		CreatedAt: detail.CreatedAt,
		UpdatedAt: detail.UpdatedAt,
	}
}

// NewStudentResponses maps a list preserving order.
func NewStudentResponses(details []models.StudentDetail) []StudentResponse {
	out := make([]StudentResponse, 0, len(details))
	for _, d := range details {
		out = append(out, NewStudentResponse(d))
	}
	return out
}

// ParseDate accepts YYYY-MM-DD or RFC3339; blank means "no date".
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
