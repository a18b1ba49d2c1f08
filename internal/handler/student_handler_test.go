package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records/internal/dto"
	"github.com/noah-isme/student-records/internal/models"
	"github.com/noah-isme/student-records/internal/service"
	appErrors "github.com/noah-isme/student-records/pkg/errors"
)

type studentServiceMock struct {
	listResp   []dto.StudentResponse
	listHit    bool
	getResp    *dto.StudentResponse
	getErr     error
	updateResp *dto.StudentResponse
	updateErr  error
	deleteErr  error
	lastFilter models.StudentFilter
	lastID     string
	lastUpdate dto.UpdateStudentRequest
}

func (m *studentServiceMock) List(ctx context.Context, filter models.StudentFilter) ([]dto.StudentResponse, bool, error) {
	m.lastFilter = filter
	return m.listResp, m.listHit, nil
}

func (m *studentServiceMock) Get(ctx context.Context, id string) (*dto.StudentResponse, bool, error) {
	m.lastID = id
	return m.getResp, false, m.getErr
}

func (m *studentServiceMock) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	m.lastID = id
	m.lastUpdate = req
	return m.updateResp, m.updateErr
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	m.lastID = id
	return m.deleteErr
}

type exporterMock struct {
	file       *service.ExportFile
	err        error
	lastFormat string
}

func (m *exporterMock) Roster(ctx context.Context, format string, filter models.StudentFilter) (*service.ExportFile, error) {
	m.lastFormat = format
	return m.file, m.err
}

func TestStudentHandlerListReportsCacheHit(t *testing.T) {
	mockSvc := &studentServiceMock{listResp: []dto.StudentResponse{{ID: "s1"}, {ID: "s2"}}, listHit: true}
	handler := NewStudentHandler(mockSvc, &exporterMock{})

	c, w := newJSONContext(http.MethodGet, "/student?search=ann&status=Active", "")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", mockSvc.lastFilter.Search)
	assert.Equal(t, models.StatusActive, mockSvc.lastFilter.Status)
	body := decodeEnvelope(t, w)
	assert.Len(t, body["data"], 2)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, float64(2), meta["count"])
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "Student not found")}, &exporterMock{})

	c, w := newJSONContext(http.MethodGet, "/student/missing", "")
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Student not found", decodeEnvelope(t, w)["error"].(map[string]interface{})["message"])
}

func TestStudentHandlerUpdateBindsPartialPayload(t *testing.T) {
	mockSvc := &studentServiceMock{updateResp: &dto.StudentResponse{ID: "s1", GPA: 3.5}}
	handler := NewStudentHandler(mockSvc, &exporterMock{})

	c, w := newJSONContext(http.MethodPut, "/student/s1", `{"gpa":3.5,"department":"Physics"}`)
	c.Params = append(c.Params, ginParam("id", "s1"))
	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mockSvc.lastID)
	require.NotNil(t, mockSvc.lastUpdate.GPA)
	assert.Equal(t, 3.5, *mockSvc.lastUpdate.GPA)
	assert.Nil(t, mockSvc.lastUpdate.FirstName)
	assert.Equal(t, "Physics", *mockSvc.lastUpdate.Department)
}

func TestStudentHandlerUpdateValidationDetails(t *testing.T) {
	validationErr := appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid student payload"), map[string]string{"gpa": "gpa must be 4 or less"})
	handler := NewStudentHandler(&studentServiceMock{updateErr: validationErr}, &exporterMock{})

	c, w := newJSONContext(http.MethodPut, "/student/s1", `{"gpa":5}`)
	handler.Update(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	details := decodeEnvelope(t, w)["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "gpa must be 4 or less", details["gpa"])
}

func TestStudentHandlerDelete(t *testing.T) {
	mockSvc := &studentServiceMock{}
	handler := NewStudentHandler(mockSvc, &exporterMock{})

	c, w := newJSONContext(http.MethodDelete, "/student/s1", "")
	c.Params = append(c.Params, ginParam("id", "s1"))
	handler.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mockSvc.lastID)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Student deleted successfully", data["message"])
}

func TestStudentHandlerExport(t *testing.T) {
	exporter := &exporterMock{file: &service.ExportFile{Filename: "students.csv", ContentType: "text/csv", Body: []byte("ID\n")}}
	handler := NewStudentHandler(&studentServiceMock{}, exporter)

	c, w := newJSONContext(http.MethodGet, "/student/export", "")
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students.csv")
	assert.Equal(t, "ID\n", w.Body.String())
}
