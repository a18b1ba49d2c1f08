package state

// EditorMode is what the record editor is doing.
type EditorMode string

const (
	ModeCreate EditorMode = "create"
	ModeEdit   EditorMode = "edit"
	ModeView   EditorMode = "view"
)

// CollectionState is the student list plus editor and request status.
// Records keep arrival order and never hold two entries with the same ID.
type CollectionState struct {
	Records      []Record
	Loading      bool
	Error        string
	ErrorKind    ErrorKind
	FieldErrors  map[string]string
	EditorOpen   bool
	EditorMode   EditorMode
	EditorTarget *Record
	Detail       *Record
}

// NewCollectionState returns the empty collection.
func NewCollectionState() CollectionState {
	return CollectionState{Records: []Record{}, EditorMode: ModeCreate}
}

// Find returns the record with id, if present.
func (s CollectionState) Find(id string) (Record, bool) {
	if i := indexOf(s.Records, id); i >= 0 {
		return s.Records[i], true
	}
	return Record{}, false
}

// Clone deep-copies the state so callers cannot alias store internals.
func (s CollectionState) Clone() CollectionState {
	out := s
	out.Records = append([]Record(nil), s.Records...)
	if out.Records == nil {
		out.Records = []Record{}
	}
	out.FieldErrors = copyFields(s.FieldErrors)
	out.EditorTarget = cloneRecord(s.EditorTarget)
	out.Detail = cloneRecord(s.Detail)
	return out
}

// ReduceStudents applies a to s and returns the next state. s is not modified.
func ReduceStudents(s CollectionState, a Action) CollectionState {
	next := s.Clone()

	switch a.Type {
	case TypeFetchAllRequested, TypeCreateRequested, TypeUpdateRequested, TypeDeleteRequested:
		next.Loading = true
		next.clearError()

	case TypeFetchOneRequested:
		next.Loading = true
		next.clearError()
		if next.Detail != nil && next.Detail.ID != a.ID {
			next.Detail = nil
		}

	case TypeFetchAllSucceeded:
		next.Records = dedupe(NormalizeAll(a.RawList))
		next.Loading = false

	case TypeFetchOneSucceeded:
		rec := Normalize(a.Raw)
		next.Detail = &rec
		if i := indexOf(next.Records, rec.ID); i >= 0 {
			next.Records[i] = rec
		}
		next.Loading = false

	case TypeCreateSucceeded:
		rec := Normalize(a.Raw)
		if i := indexOf(next.Records, rec.ID); i >= 0 {
			next.Records[i] = rec
		} else {
			next.Records = append(next.Records, rec)
		}
		next.Loading = false
		next.closeEditor()

	case TypeUpdateSucceeded:
		rec := Normalize(a.Raw)
		if i := indexOf(next.Records, rec.ID); i >= 0 {
			next.Records[i] = rec
		}
		if next.Detail != nil && next.Detail.ID == rec.ID {
			next.Detail = &rec
		}
		next.Loading = false
		next.closeEditor()

	case TypeDeleteSucceeded:
		if i := indexOf(next.Records, a.ID); i >= 0 {
			next.Records = append(next.Records[:i], next.Records[i+1:]...)
		}
		if next.Detail != nil && next.Detail.ID == a.ID {
			next.Detail = nil
		}
		next.Loading = false

	case TypeFetchAllFailed, TypeFetchOneFailed, TypeCreateFailed, TypeUpdateFailed, TypeDeleteFailed, TypeProfileSyncFailed:
		next.Loading = false
		next.Error = a.Error
		next.ErrorKind = a.Kind
		next.FieldErrors = copyFields(a.FieldErrors)

	case TypeOpenEditor:
		next.EditorOpen = true
		next.EditorMode = a.Mode
		next.EditorTarget = cloneRecord(a.Target)
		next.clearError()

	case TypeCloseEditor:
		next.closeEditor()

	case TypeClearError:
		next.clearError()
	}

	return next
}

func (s *CollectionState) clearError() {
	s.Error = ""
	s.ErrorKind = ErrorNone
	s.FieldErrors = nil
}

func (s *CollectionState) closeEditor() {
	s.EditorOpen = false
	s.EditorTarget = nil
}

func indexOf(records []Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// dedupe keeps the first position of each id and the last value seen for it.
func dedupe(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if i := indexOf(out, rec.ID); i >= 0 {
			out[i] = rec
			continue
		}
		out = append(out, rec)
	}
	return out
}

func cloneRecord(r *Record) *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
