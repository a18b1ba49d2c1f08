package state

// User is the signed-in account as reported by the gateway.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the client's authentication state.
type Session struct {
	Token           string
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	ErrorKind       ErrorKind
	FieldErrors     map[string]string
	JustRegistered  bool
}

// NewSession builds the start-up session from a persisted token.
func NewSession(token string) Session {
	return Session{Token: token, IsAuthenticated: token != ""}
}

// Clone deep-copies the session.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.FieldErrors = copyFields(s.FieldErrors)
	return out
}

// ReduceSession applies a to s and returns the next session. Registration never authenticates.
func ReduceSession(s Session, a Action) Session {
	next := s.Clone()

	switch a.Type {
	case TypeLoginRequested, TypeRegisterRequested:
		next.IsLoading = true
		next.clearError()
		next.JustRegistered = false

	case TypeLoginSucceeded:
		next.Token = a.Token
		next.User = nil
		if a.User != nil {
			u := *a.User
			next.User = &u
		}
		next.IsAuthenticated = a.Token != ""
		next.IsLoading = false
		next.clearError()

	case TypeLoginFailed:
		next.Token = ""
		next.User = nil
		next.IsAuthenticated = false
		next.IsLoading = false
		next.Error = a.Error
		next.ErrorKind = a.Kind
		next.FieldErrors = copyFields(a.FieldErrors)

	case TypeRegisterSucceeded:
		next.IsLoading = false
		next.JustRegistered = true

	case TypeRegisterFailed:
		next.IsLoading = false
		next.Error = a.Error
		next.ErrorKind = a.Kind
		next.FieldErrors = copyFields(a.FieldErrors)

	case TypeClearJustRegistered:
		next.JustRegistered = false

	case TypeClearSessionError:
		next.clearError()

	// Logout also ends any login it superseded, so it must leave the session idle.
	case TypeLogout:
		next.Token = ""
		next.User = nil
		next.IsAuthenticated = false
		next.IsLoading = false
		next.JustRegistered = false
		next.clearError()
	}

	return next
}

func (s *Session) clearError() {
	s.Error = ""
	s.ErrorKind = ErrorNone
	s.FieldErrors = nil
}
