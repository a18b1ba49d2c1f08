// Package effects turns client intents into gateway calls and resolves each one into a single outcome.
package effects

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-records/internal/client/api"
	"github.com/noah-isme/student-records/internal/client/state"
)

// Gateway is the subset of the gateway surface the coordinator drives.
type Gateway interface {
	Register(ctx context.Context, payload map[string]any) (api.AuthResult, error)
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	ListStudents(ctx context.Context) ([]map[string]any, error)
	GetStudent(ctx context.Context, id string) (map[string]any, error)
	UpdateStudent(ctx context.Context, id string, payload map[string]any) (map[string]any, error)
	DeleteStudent(ctx context.Context, id string) error
}

// Dispatcher receives actions; *state.Store satisfies it.
type Dispatcher interface {
	Dispatch(state.Action)
}

type category string

const (
	categoryFetchAll category = "fetch_all"
	categoryFetchOne category = "fetch_one"
	categoryLogin    category = "login"
	categoryRegister category = "register"
	categoryCreate   category = "create"
	categoryUpdate   category = "update"
	categoryDelete   category = "delete"
)

var categories = []category{
	categoryFetchAll, categoryFetchOne, categoryLogin, categoryRegister,
	categoryCreate, categoryUpdate, categoryDelete,
}

// lane orders the intents of one category. Only the newest intent may resolve.
type lane struct {
	mu  sync.Mutex
	seq uint64
}

// Options tunes the coordinator.
type Options struct {
	// Timeout bounds every effect, including both steps of a composite create. Zero means 30s.
	Timeout time.Duration
}

// Coordinator runs one gateway call per intent. Within a category the latest intent wins:
// superseded calls run to completion and their outcomes are dropped.
// Store subscribers must not call the coordinator synchronously.
type Coordinator struct {
	gateway Gateway
	store   Dispatcher
	logger  *zap.Logger
	timeout time.Duration

	lanes map[category]*lane
	wg    sync.WaitGroup
}

// New wires a coordinator to a gateway and the store it resolves into.
func New(gateway Gateway, store Dispatcher, logger *zap.Logger, opts Options) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	lanes := make(map[category]*lane, len(categories))
	for _, c := range categories {
		lanes[c] = &lane{}
	}
	return &Coordinator{
		gateway: gateway,
		store:   store,
		logger:  logger,
		timeout: opts.Timeout,
		lanes:   lanes,
	}
}

// Wait blocks until every in-flight effect has resolved or been discarded.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// FetchAll loads the full roster.
func (c *Coordinator) FetchAll() {
	c.run(categoryFetchAll, state.FetchAllRequested(), state.FetchAllFailed, func(ctx context.Context) []state.Action {
		records, err := c.gateway.ListStudents(ctx)
		if err != nil {
			return c.studentFailure(state.FetchAllFailed, err)
		}
		return []state.Action{state.FetchAllSucceeded(records)}
	})
}

// FetchOne loads a single student into the detail slot.
func (c *Coordinator) FetchOne(id string) {
	c.run(categoryFetchOne, state.FetchOneRequested(id), state.FetchOneFailed, func(ctx context.Context) []state.Action {
		record, err := c.gateway.GetStudent(ctx, id)
		if err != nil {
			return c.studentFailure(state.FetchOneFailed, err)
		}
		return []state.Action{state.FetchOneSucceeded(record)}
	})
}

// Login authenticates and stores the session token.
func (c *Coordinator) Login(email, password string) {
	c.run(categoryLogin, state.LoginRequested(), state.LoginFailed, func(ctx context.Context) []state.Action {
		res, err := c.gateway.Login(ctx, email, password)
		if err != nil {
			f := classify(err)
			return []state.Action{state.LoginFailed(f.message).WithKind(f.kind, f.fields)}
		}
		if res.Token == "" {
			return []state.Action{state.LoginFailed("Login response did not include a token").WithKind(state.ErrorTransport, nil)}
		}
		return []state.Action{state.LoginSucceeded(res.Token, userFrom(res))}
	})
}

// Register creates an account from the sign-up form. The session stays signed out.
func (c *Coordinator) Register(form state.StudentForm) {
	payload := registerPayload(form)
	c.run(categoryRegister, state.RegisterRequested(), state.RegisterFailed, func(ctx context.Context) []state.Action {
		if _, err := c.gateway.Register(ctx, payload); err != nil {
			f := classify(err)
			return []state.Action{state.RegisterFailed(f.message).WithKind(f.kind, f.fields)}
		}
		return []state.Action{state.RegisterSucceeded()}
	})
}

// Create registers a new student account and then saves the rest of the profile on it.
// When the follow-up fails the account still appears in the collection, followed by ProfileSyncFailed.
func (c *Coordinator) Create(form state.StudentForm) {
	account := registerPayload(form)
	profile := profilePayload(form)
	c.run(categoryCreate, state.CreateRequested(form), state.CreateFailed, func(ctx context.Context) []state.Action {
		res, err := c.gateway.Register(ctx, account)
		if err != nil {
			return c.studentFailure(state.CreateFailed, err)
		}

		base := formRecord(form)
		id := res.UserID()
		if id == "" {
			c.logger.Warn("registration response carried no id; profile not synced")
			return []state.Action{state.CreateSucceeded(base)}
		}
		base["id"] = id

		record, err := c.gateway.UpdateStudent(ctx, id, profile)
		if err != nil {
			f := classify(err)
			c.logger.Warn("student profile sync failed", zap.String("student_id", id), zap.Error(err))
			out := []state.Action{
				state.CreateSucceeded(base),
				state.ProfileSyncFailed(id, fmt.Sprintf("Account created but profile was not saved: %s", f.message)).WithKind(f.kind, f.fields),
			}
			if f.kind == state.ErrorAuth {
				out = append(out, state.Logout())
			}
			return out
		}
		return []state.Action{state.CreateSucceeded(withMajor(record, form.Major))}
	})
}

// Update saves an edited student.
func (c *Coordinator) Update(id string, form state.StudentForm) {
	payload := profilePayload(form)
	c.run(categoryUpdate, state.UpdateRequested(id, form), state.UpdateFailed, func(ctx context.Context) []state.Action {
		record, err := c.gateway.UpdateStudent(ctx, id, payload)
		if err != nil {
			return c.studentFailure(state.UpdateFailed, err)
		}
		return []state.Action{state.UpdateSucceeded(withMajor(record, form.Major))}
	})
}

// Delete removes a student.
func (c *Coordinator) Delete(id string) {
	c.run(categoryDelete, state.DeleteRequested(id), state.DeleteFailed, func(ctx context.Context) []state.Action {
		if err := c.gateway.DeleteStudent(ctx, id); err != nil {
			return c.studentFailure(state.DeleteFailed, err)
		}
		return []state.Action{state.DeleteSucceeded(id)}
	})
}

// Logout signs out locally. Any login still in flight is superseded.
func (c *Coordinator) Logout() {
	l := c.lanes[categoryLogin]
	l.mu.Lock()
	l.seq++
	c.store.Dispatch(state.Logout())
	l.mu.Unlock()
}

// run dispatches requested, performs call off the caller's goroutine, and resolves the outcome
// only if no newer intent of the same category has started in the meantime.
func (c *Coordinator) run(cat category, requested state.Action, fail func(string) state.Action, call func(context.Context) []state.Action) {
	l := c.lanes[cat]

	l.mu.Lock()
	l.seq++
	seq := l.seq
	c.store.Dispatch(requested)
	l.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		outcomes := c.invoke(ctx, cat, fail, call)

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.seq != seq {
			c.logger.Debug("discarding superseded outcome", zap.String("category", string(cat)), zap.Uint64("seq", seq))
			return
		}
		for _, a := range outcomes {
			c.store.Dispatch(a)
		}
	}()
}

func (c *Coordinator) invoke(ctx context.Context, cat category, fail func(string) state.Action, call func(context.Context) []state.Action) (outcomes []state.Action) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("effect panicked", zap.String("category", string(cat)), zap.Any("panic", r))
			outcomes = []state.Action{fail("Unexpected error").WithKind(state.ErrorTransport, nil)}
		}
	}()
	return call(ctx)
}

// studentFailure builds the failure outcome for a student operation. An auth failure also ends the session.
func (c *Coordinator) studentFailure(fail func(string) state.Action, err error) []state.Action {
	f := classify(err)
	out := []state.Action{fail(f.message).WithKind(f.kind, f.fields)}
	if f.kind == state.ErrorAuth {
		out = append(out, state.Logout())
	}
	return out
}

func userFrom(res api.AuthResult) state.User {
	u := state.User{ID: res.UserID()}
	if res.User != nil {
		rec := state.Normalize(res.User)
		u.Email = rec.Email
		if name, ok := res.User["name"].(string); ok {
			u.Name = name
		} else {
			u.Name = rec.FullName()
		}
	}
	return u
}
