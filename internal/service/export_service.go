package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-records/internal/dto"
	"github.com/noah-isme/student-records/internal/models"
	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/export"
)

var rosterHeaders = []string{"ID", "First Name", "Last Name", "Email", "Phone", "Major", "Year", "GPA", "Status", "Enrollment Date", "City"}

type rosterSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]dto.StudentResponse, bool, error)
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered roster ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the student roster in the requested format.
type ExportService struct {
	students  rosterSource
	renderers map[string]Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(students rosterSource, logger *zap.Logger, renderers ...Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(renderers) == 0 {
		renderers = []Renderer{export.NewCSVExporter(), export.NewPDFExporter()}
	}
	byFormat := make(map[string]Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ExportService{students: students, renderers: byFormat, logger: logger, now: time.Now}
}

// Roster renders every student matching filter. format is a renderer extension such as csv or pdf.
func (s *ExportService) Roster(ctx context.Context, format string, filter models.StudentFilter) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
			map[string]string{"format": fmt.Sprintf("format %q is not supported", format)},
		)
	}

	students, _, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(buildRosterDataset(students), "Student Roster")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Info("roster exported", zap.String("format", format), zap.Int("rows", len(students)))

	return &ExportFile{
		Filename:    fmt.Sprintf("students-%s.%s", s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func buildRosterDataset(students []dto.StudentResponse) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"ID":              st.ID,
			"First Name":      st.FirstName,
			"Last Name":       st.LastName,
			"Email":           st.Email,
			"Phone":           st.Phone,
			"Major":           st.Major,
			"Year":            st.Year,
			"GPA":             fmt.Sprintf("%.2f", st.GPA),
			"Status":          st.Status,
			"Enrollment Date": st.EnrollmentDate,
			"City":            st.Address.City,
		})
	}
	return export.Dataset{Headers: rosterHeaders, Rows: rows}
}
