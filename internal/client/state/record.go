package state

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Year is the academic standing of a student.
type Year string

const (
	Freshman  Year = "Freshman"
	Sophomore Year = "Sophomore"
	Junior    Year = "Junior"
	Senior    Year = "Senior"
)

// Years lists the valid years in order.
var Years = []Year{Freshman, Sophomore, Junior, Senior}

// Status is the enrollment state of a student.
type Status string

const (
	Active    Status = "Active"
	Inactive  Status = "Inactive"
	Graduated Status = "Graduated"
	Suspended Status = "Suspended"
)

// Statuses lists the valid statuses in order.
var Statuses = []Status{Active, Inactive, Graduated, Suspended}

// MajorKeys are the payload keys that may carry a student's major, highest priority first.
// Gateways disagree on the name, so the first non-blank value wins.
var MajorKeys = []string{
	"major",
	"majorName",
	"department",
	"departmentName",
	"dept",
	"program",
	"programme",
	"fieldOfStudy",
	"course",
	"specialization",
}

// Address is a student's postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// Record is the canonical client-side student record. Every field is always populated.
type Record struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	DateOfBirth    string  `json:"dateOfBirth"`
	EnrollmentDate string  `json:"enrollmentDate"`
	Major          string  `json:"major"`
	Year           Year    `json:"year"`
	GPA            float64 `json:"gpa"`
	Status         Status  `json:"status"`
	Address        Address `json:"address"`
}

// FullName joins first and last name.
func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Normalize coerces an arbitrary decoded JSON object into a Record.
// It never fails: missing or malformed fields take their defaults
// ("" for strings, 0 for gpa, Freshman, Active).
func Normalize(raw map[string]any) Record {
	rec := Record{
		ID:             stringField(raw, "id"),
		FirstName:      stringField(raw, "firstName"),
		LastName:       stringField(raw, "lastName"),
		Email:          stringField(raw, "email"),
		Phone:          stringField(raw, "phone"),
		DateOfBirth:    dateOnly(stringField(raw, "dateOfBirth")),
		EnrollmentDate: dateOnly(stringField(raw, "enrollmentDate")),
		Major:          firstNonBlank(raw, MajorKeys),
		Year:           parseYear(stringField(raw, "year")),
		GPA:            parseGPA(raw["gpa"]),
		Status:         parseStatus(stringField(raw, "status")),
	}
	if addr, ok := raw["address"].(map[string]any); ok {
		rec.Address = Address{
			Street:  stringField(addr, "street"),
			City:    stringField(addr, "city"),
			State:   stringField(addr, "state"),
			ZipCode: stringField(addr, "zipCode"),
		}
	}
	return rec
}

// NormalizeAll normalizes a list, preserving order.
func NormalizeAll(raw []map[string]any) []Record {
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		out = append(out, Normalize(item))
	}
	return out
}

// Sanitize re-applies the normalization rules to an already typed record.
func Sanitize(r Record) Record {
	r.ID = strings.TrimSpace(r.ID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.DateOfBirth = dateOnly(strings.TrimSpace(r.DateOfBirth))
	r.EnrollmentDate = dateOnly(strings.TrimSpace(r.EnrollmentDate))
	r.Major = strings.TrimSpace(r.Major)
	r.Year = parseYear(string(r.Year))
	r.GPA = clampGPA(r.GPA)
	r.Status = parseStatus(string(r.Status))
	r.Address = Address{
		Street:  strings.TrimSpace(r.Address.Street),
		City:    strings.TrimSpace(r.Address.City),
		State:   strings.TrimSpace(r.Address.State),
		ZipCode: strings.TrimSpace(r.Address.ZipCode),
	}
	return r
}

func stringField(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	return strings.TrimSpace(asString(raw[key]))
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func firstNonBlank(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if v := stringField(raw, key); v != "" {
			return v
		}
	}
	return ""
}

func dateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

func parseYear(s string) Year {
	s = strings.TrimSpace(s)
	for _, y := range Years {
		if strings.EqualFold(s, string(y)) {
			return y
		}
	}
	return Freshman
}

func parseStatus(s string) Status {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return Active
}

func parseGPA(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, _ = t.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return clampGPA(f)
}

func clampGPA(f float64) float64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f < 0:
		return 0
	case f > 4:
		return 4
	default:
		return f
	}
}
