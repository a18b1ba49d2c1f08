package state

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func reduceAll(s CollectionState, actions ...Action) CollectionState {
	for _, a := range actions {
		s = ReduceStudents(s, a)
	}
	return s
}

func TestFetchAllSucceededCoercesGPA(t *testing.T) {
	s := reduceAll(NewCollectionState(),
		FetchAllRequested(),
		FetchAllSucceeded([]map[string]any{{"id": "1", "firstName": "Ann", "gpa": "3.5"}}),
	)

	require.Len(t, s.Records, 1)
	assert.Equal(t, 3.5, s.Records[0].GPA)
	assert.Equal(t, "", s.Records[0].LastName)
	assert.False(t, s.Loading)
}

func TestFetchAllReplacesAndDedupes(t *testing.T) {
	s := reduceAll(NewCollectionState(),
		FetchAllSucceeded([]map[string]any{raw("old")}),
		FetchAllSucceeded([]map[string]any{raw("1", "firstName", "A"), raw("2"), raw("1", "firstName", "B")}),
	)

	assert.Equal(t, []string{"1", "2"}, ids(s.Records))
	assert.Equal(t, "B", s.Records[0].FirstName)
}

func TestDeleteScenario(t *testing.T) {
	s := reduceAll(NewCollectionState(), FetchAllSucceeded([]map[string]any{raw("1")}))

	s = ReduceStudents(s, DeleteRequested("1"))
	assert.True(t, s.Loading)
	s = ReduceStudents(s, DeleteSucceeded("1"))

	assert.Empty(t, s.Records)
	assert.NotNil(t, s.Records)
	assert.False(t, s.Loading)
}

func TestUpdateSucceededForAbsentRecord(t *testing.T) {
	start := reduceAll(NewCollectionState(),
		FetchAllSucceeded([]map[string]any{raw("1", "firstName", "Ann")}),
		OpenEditor(ModeEdit, &Record{ID: "1"}),
		UpdateRequested("9", StudentForm{}),
	)
	require.True(t, start.Loading)
	require.True(t, start.EditorOpen)

	next := ReduceStudents(start, UpdateSucceeded(raw("9", "firstName", "Ghost")))

	assert.Equal(t, start.Records, next.Records)
	assert.False(t, next.Loading)
	assert.False(t, next.EditorOpen)
	assert.Nil(t, next.EditorTarget)
	assert.Equal(t, start.EditorMode, next.EditorMode)
}

func TestUpdateSucceededReplacesInPlaceAndIsIdempotent(t *testing.T) {
	s := reduceAll(NewCollectionState(), FetchAllSucceeded([]map[string]any{raw("1"), raw("2"), raw("3")}))
	update := UpdateSucceeded(raw("2", "firstName", "Bo", "gpa", 3.9))

	once := ReduceStudents(s, update)
	twice := ReduceStudents(once, update)

	assert.Equal(t, []string{"1", "2", "3"}, ids(once.Records))
	assert.Equal(t, "Bo", once.Records[1].FirstName)
	assert.Equal(t, once, twice)
}

func TestCreateSucceededAppendsAndClosesEditor(t *testing.T) {
	s := reduceAll(NewCollectionState(),
		FetchAllSucceeded([]map[string]any{raw("1")}),
		OpenEditor(ModeCreate, nil),
		CreateRequested(StudentForm{FirstName: "New"}),
		CreateSucceeded(raw("2", "firstName", "New")),
	)

	assert.Equal(t, []string{"1", "2"}, ids(s.Records))
	assert.False(t, s.EditorOpen)
	assert.False(t, s.Loading)
}

func TestCreateSucceededWithExistingIDReplaces(t *testing.T) {
	s := reduceAll(NewCollectionState(),
		FetchAllSucceeded([]map[string]any{raw("1", "firstName", "Old"), raw("2")}),
		CreateSucceeded(raw("1", "firstName", "New")),
	)

	assert.Equal(t, []string{"1", "2"}, ids(s.Records))
	assert.Equal(t, "New", s.Records[0].FirstName)
}

func TestFailuresLeaveRecordsUntouched(t *testing.T) {
	base := reduceAll(NewCollectionState(), FetchAllSucceeded([]map[string]any{raw("1")}))
	failures := []Action{
		FetchAllFailed("boom"),
		FetchOneFailed("boom"),
		CreateFailed("boom"),
		UpdateFailed("boom"),
		DeleteFailed("boom"),
		ProfileSyncFailed("1", "boom"),
	}
	for _, f := range failures {
		t.Run(string(f.Type), func(t *testing.T) {
			s := ReduceStudents(ReduceStudents(base, FetchAllRequested()), f)
			assert.Equal(t, base.Records, s.Records)
			assert.False(t, s.Loading)
			assert.Equal(t, "boom", s.Error)
			assert.Equal(t, ErrorTransport, s.ErrorKind)
		})
	}
}

func TestFailureCarriesFieldErrors(t *testing.T) {
	s := ReduceStudents(NewCollectionState(), UpdateFailed("invalid").WithKind(ErrorValidation, map[string]string{"gpa": "too high"}))
	assert.Equal(t, ErrorValidation, s.ErrorKind)
	assert.Equal(t, "too high", s.FieldErrors["gpa"])

	s = ReduceStudents(s, UpdateRequested("1", StudentForm{}))
	assert.Empty(t, s.Error)
	assert.Nil(t, s.FieldErrors)
}

func TestEditorLifecycle(t *testing.T) {
	target := Record{ID: "1", FirstName: "Ann"}
	s := reduceAll(NewCollectionState(), DeleteFailed("old error"), OpenEditor(ModeView, &target))

	assert.True(t, s.EditorOpen)
	assert.Equal(t, ModeView, s.EditorMode)
	require.NotNil(t, s.EditorTarget)
	assert.Equal(t, "Ann", s.EditorTarget.FirstName)
	assert.Empty(t, s.Error)

	target.FirstName = "mutated"
	assert.Equal(t, "Ann", s.EditorTarget.FirstName)

	s = ReduceStudents(s, CloseEditor())
	assert.False(t, s.EditorOpen)
	assert.Nil(t, s.EditorTarget)
}

func TestFetchOneSetsDetailAndRefreshesList(t *testing.T) {
	s := reduceAll(NewCollectionState(),
		FetchAllSucceeded([]map[string]any{raw("1", "firstName", "Stale")}),
		FetchOneRequested("1"),
		FetchOneSucceeded(raw("1", "firstName", "Fresh")),
	)

	require.NotNil(t, s.Detail)
	assert.Equal(t, "Fresh", s.Detail.FirstName)
	assert.Equal(t, "Fresh", s.Records[0].FirstName)

	s = ReduceStudents(s, FetchOneRequested("2"))
	assert.Nil(t, s.Detail)

	s = reduceAll(s, FetchOneSucceeded(raw("1")), DeleteSucceeded("1"))
	assert.Nil(t, s.Detail)
}

func TestReduceStudentsDoesNotMutateInput(t *testing.T) {
	s := reduceAll(NewCollectionState(), FetchAllSucceeded([]map[string]any{raw("1"), raw("2")}))
	before := s.Clone()

	ReduceStudents(s, DeleteSucceeded("1"))
	ReduceStudents(s, UpdateSucceeded(raw("2", "firstName", "X")))

	assert.Equal(t, before, s)
}

func TestNoDuplicateIDsUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		s := NewCollectionState()
		for step := 0; step < 40; step++ {
			id := fmt.Sprint(rng.Intn(6))
			switch rng.Intn(3) {
			case 0:
				s = ReduceStudents(s, CreateSucceeded(raw(id)))
			case 1:
				s = ReduceStudents(s, UpdateSucceeded(raw(id, "gpa", rng.Float64()*4)))
			default:
				s = ReduceStudents(s, DeleteSucceeded(id))
			}
			seen := map[string]bool{}
			for _, r := range s.Records {
				require.False(t, seen[r.ID], "duplicate id %s", r.ID)
				seen[r.ID] = true
			}
		}
	}
}
