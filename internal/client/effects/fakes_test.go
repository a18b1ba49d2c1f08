package effects

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records/internal/client/api"
	"github.com/noah-isme/student-records/internal/client/state"
)

type reply struct {
	records []map[string]any
	record  map[string]any
	auth    api.AuthResult
	err     error
	panic   bool
}

type call struct {
	method  string
	id      string
	payload map[string]any
	replies chan reply
}

func (c *call) respond(r reply) { c.replies <- r }

// fakeGateway parks every call until the test responds, so completion order is under test control.
type fakeGateway struct {
	calls chan *call
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(chan *call, 16)}
}

func (g *fakeGateway) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no gateway call arrived")
		return nil
	}
}

func (g *fakeGateway) await(ctx context.Context, method, id string, payload map[string]any) reply {
	c := &call{method: method, id: id, payload: payload, replies: make(chan reply, 1)}
	g.calls <- c
	select {
	case r := <-c.replies:
		if r.panic {
			panic("gateway exploded")
		}
		return r
	case <-ctx.Done():
		return reply{err: ctx.Err()}
	}
}

func (g *fakeGateway) Register(ctx context.Context, payload map[string]any) (api.AuthResult, error) {
	r := g.await(ctx, "Register", "", payload)
	return r.auth, r.err
}

func (g *fakeGateway) Login(ctx context.Context, email, password string) (api.AuthResult, error) {
	r := g.await(ctx, "Login", "", map[string]any{"email": email, "password": password})
	return r.auth, r.err
}

func (g *fakeGateway) ListStudents(ctx context.Context) ([]map[string]any, error) {
	r := g.await(ctx, "ListStudents", "", nil)
	return r.records, r.err
}

func (g *fakeGateway) GetStudent(ctx context.Context, id string) (map[string]any, error) {
	r := g.await(ctx, "GetStudent", id, nil)
	return r.record, r.err
}

func (g *fakeGateway) UpdateStudent(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	r := g.await(ctx, "UpdateStudent", id, payload)
	return r.record, r.err
}

func (g *fakeGateway) DeleteStudent(ctx context.Context, id string) error {
	return g.await(ctx, "DeleteStudent", id, nil).err
}

type memoryTokens struct {
	mu     sync.Mutex
	token  string
	clears int
}

func (m *memoryTokens) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryTokens) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memoryTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.clears++
	return nil
}

type recorder struct {
	mu      sync.Mutex
	actions []state.Action
}

func (r *recorder) types() []state.ActionType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]state.ActionType, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a.Type)
	}
	return out
}

func (r *recorder) count(t state.ActionType) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}
	return n
}

type harness struct {
	gateway     *fakeGateway
	store       *state.Store
	tokens      *memoryTokens
	recorder    *recorder
	coordinator *Coordinator
}

func newHarness(t *testing.T, token string, opts Options) *harness {
	t.Helper()
	h := &harness{
		gateway:  newFakeGateway(),
		tokens:   &memoryTokens{token: token},
		recorder: &recorder{},
	}
	h.store = state.NewStore(h.tokens, nil)
	cancel := h.store.Subscribe(func(a state.Action, _ state.Snapshot) {
		h.recorder.mu.Lock()
		h.recorder.actions = append(h.recorder.actions, a)
		h.recorder.mu.Unlock()
	})
	t.Cleanup(cancel)
	h.coordinator = New(h.gateway, h.store, nil, opts)
	return h
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		h.coordinator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "effects did not settle")
	}
}

func studentForm() state.StudentForm {
	return state.StudentForm{
		FirstName:       "Ann",
		LastName:        "Lee",
		Email:           "ann@example.com",
		Phone:           "5551234567",
		DateOfBirth:     "2003-04-05",
		EnrollmentDate:  "2021-09-01",
		Major:           "Physics",
		Year:            state.Junior,
		GPA:             3.5,
		Status:          state.Active,
		Address:         state.Address{Street: "1 Main", City: "Springfield", State: "IL", ZipCode: "62701"},
		Password:        "password1",
		ConfirmPassword: "password1",
	}
}
