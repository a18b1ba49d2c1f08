package effects

import (
	"strings"

	"github.com/noah-isme/student-records/internal/client/state"
)

func registerPayload(f state.StudentForm) map[string]any {
	p := map[string]any{
		"firstName": strings.TrimSpace(f.FirstName),
		"lastName":  strings.TrimSpace(f.LastName),
		"email":     strings.TrimSpace(f.Email),
		"password":  f.Password,
	}
	if phone := strings.TrimSpace(f.Phone); phone != "" {
		p["phone"] = phone
	}
	return p
}

// profilePayload is the update body. confirmPassword never leaves the client, the major is sent
// under both names the gateway accepts, and blank email or password are left out so they are not overwritten.
func profilePayload(f state.StudentForm) map[string]any {
	major := strings.TrimSpace(f.Major)
	p := map[string]any{
		"firstName":      strings.TrimSpace(f.FirstName),
		"lastName":       strings.TrimSpace(f.LastName),
		"phone":          strings.TrimSpace(f.Phone),
		"dateOfBirth":    strings.TrimSpace(f.DateOfBirth),
		"enrollmentDate": strings.TrimSpace(f.EnrollmentDate),
		"major":          major,
		"department":     major,
		"gpa":            f.GPA,
		"address": map[string]any{
			"street":  strings.TrimSpace(f.Address.Street),
			"city":    strings.TrimSpace(f.Address.City),
			"state":   strings.TrimSpace(f.Address.State),
			"zipCode": strings.TrimSpace(f.Address.ZipCode),
		},
	}
	if f.Year != "" {
		p["year"] = string(f.Year)
	}
	if f.Status != "" {
		p["status"] = string(f.Status)
	}
	if email := strings.TrimSpace(f.Email); email != "" {
		p["email"] = email
	}
	if f.Password != "" {
		p["password"] = f.Password
	}
	return p
}

// formRecord renders the submitted form as a raw record for when the gateway returned no profile.
func formRecord(f state.StudentForm) map[string]any {
	p := profilePayload(f)
	delete(p, "password")
	delete(p, "department")
	return p
}

// withMajor fills the major from the submitted form when the response carries none under any known key.
func withMajor(record map[string]any, submitted string) map[string]any {
	if record == nil {
		record = map[string]any{}
	}
	if state.Normalize(record).Major != "" || strings.TrimSpace(submitted) == "" {
		return record
	}
	out := make(map[string]any, len(record)+1)
	for k, v := range record {
		out[k] = v
	}
	out["major"] = strings.TrimSpace(submitted)
	return out
}
