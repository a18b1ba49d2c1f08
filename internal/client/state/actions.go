package state

// ActionType names an intent or outcome.
type ActionType string

const (
	TypeFetchAllRequested ActionType = "students/fetchAllRequested"
	TypeFetchAllSucceeded ActionType = "students/fetchAllSucceeded"
	TypeFetchAllFailed    ActionType = "students/fetchAllFailed"

	TypeFetchOneRequested ActionType = "students/fetchOneRequested"
	TypeFetchOneSucceeded ActionType = "students/fetchOneSucceeded"
	TypeFetchOneFailed    ActionType = "students/fetchOneFailed"

	TypeCreateRequested ActionType = "students/createRequested"
	TypeCreateSucceeded ActionType = "students/createSucceeded"
	TypeCreateFailed    ActionType = "students/createFailed"

	TypeUpdateRequested ActionType = "students/updateRequested"
	TypeUpdateSucceeded ActionType = "students/updateSucceeded"
	TypeUpdateFailed    ActionType = "students/updateFailed"

	TypeDeleteRequested ActionType = "students/deleteRequested"
	TypeDeleteSucceeded ActionType = "students/deleteSucceeded"
	TypeDeleteFailed    ActionType = "students/deleteFailed"

	TypeProfileSyncFailed ActionType = "students/profileSyncFailed"

	TypeOpenEditor  ActionType = "students/openEditor"
	TypeCloseEditor ActionType = "students/closeEditor"
	TypeClearError  ActionType = "students/clearError"

	TypeLoginRequested ActionType = "auth/loginRequested"
	TypeLoginSucceeded ActionType = "auth/loginSucceeded"
	TypeLoginFailed    ActionType = "auth/loginFailed"

	TypeRegisterRequested   ActionType = "auth/registerRequested"
	TypeRegisterSucceeded   ActionType = "auth/registerSucceeded"
	TypeRegisterFailed      ActionType = "auth/registerFailed"
	TypeClearJustRegistered ActionType = "auth/clearJustRegistered"
	TypeClearSessionError   ActionType = "auth/clearError"

	TypeLogout ActionType = "auth/logout"
)

// Action is a typed message reduced by the store. Only the fields relevant to Type are set.
type Action struct {
	Type ActionType

	ID      string
	Raw     map[string]any
	RawList []map[string]any
	Form    *StudentForm
	Mode    EditorMode
	Target  *Record

	Token string
	User  *User

	Error       string
	Kind        ErrorKind
	FieldErrors map[string]string
}

// WithKind attaches an error kind and optional per-field messages to a failure action.
func (a Action) WithKind(kind ErrorKind, fields map[string]string) Action {
	a.Kind = kind
	if len(fields) > 0 {
		a.FieldErrors = copyFields(fields)
	}
	return a
}

func failure(t ActionType, message string) Action {
	return Action{Type: t, Error: message, Kind: ErrorTransport}
}

func FetchAllRequested() Action { return Action{Type: TypeFetchAllRequested} }

func FetchAllSucceeded(records []map[string]any) Action {
	return Action{Type: TypeFetchAllSucceeded, RawList: records}
}

func FetchAllFailed(message string) Action { return failure(TypeFetchAllFailed, message) }

func FetchOneRequested(id string) Action { return Action{Type: TypeFetchOneRequested, ID: id} }

func FetchOneSucceeded(record map[string]any) Action {
	return Action{Type: TypeFetchOneSucceeded, Raw: record}
}

func FetchOneFailed(message string) Action { return failure(TypeFetchOneFailed, message) }

func CreateRequested(form StudentForm) Action {
	return Action{Type: TypeCreateRequested, Form: &form}
}

func CreateSucceeded(record map[string]any) Action {
	return Action{Type: TypeCreateSucceeded, Raw: record}
}

func CreateFailed(message string) Action { return failure(TypeCreateFailed, message) }

func UpdateRequested(id string, form StudentForm) Action {
	return Action{Type: TypeUpdateRequested, ID: id, Form: &form}
}

func UpdateSucceeded(record map[string]any) Action {
	return Action{Type: TypeUpdateSucceeded, Raw: record}
}

func UpdateFailed(message string) Action { return failure(TypeUpdateFailed, message) }

func DeleteRequested(id string) Action { return Action{Type: TypeDeleteRequested, ID: id} }

func DeleteSucceeded(id string) Action { return Action{Type: TypeDeleteSucceeded, ID: id} }

func DeleteFailed(message string) Action { return failure(TypeDeleteFailed, message) }

// ProfileSyncFailed reports that an account was created but its profile follow-up was not saved.
func ProfileSyncFailed(id, message string) Action {
	a := failure(TypeProfileSyncFailed, message)
	a.ID = id
	return a
}

// OpenEditor opens the editor; target may be nil for create.
func OpenEditor(mode EditorMode, target *Record) Action {
	a := Action{Type: TypeOpenEditor, Mode: mode}
	if target != nil {
		cp := *target
		a.Target = &cp
	}
	return a
}

func CloseEditor() Action { return Action{Type: TypeCloseEditor} }

func ClearError() Action { return Action{Type: TypeClearError} }

func LoginRequested() Action { return Action{Type: TypeLoginRequested} }

func LoginSucceeded(token string, user User) Action {
	return Action{Type: TypeLoginSucceeded, Token: token, User: &user}
}

func LoginFailed(message string) Action { return failure(TypeLoginFailed, message).WithKind(ErrorAuth, nil) }

func RegisterRequested() Action { return Action{Type: TypeRegisterRequested} }

func RegisterSucceeded() Action { return Action{Type: TypeRegisterSucceeded} }

func RegisterFailed(message string) Action { return failure(TypeRegisterFailed, message) }

func ClearJustRegistered() Action { return Action{Type: TypeClearJustRegistered} }

func ClearSessionError() Action { return Action{Type: TypeClearSessionError} }

func Logout() Action { return Action{Type: TypeLogout} }

func copyFields(fields map[string]string) map[string]string {
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
