package state

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSeedsSessionFromTokenStore(t *testing.T) {
	store := NewStore(&memoryTokens{token: "persisted"}, nil)
	assert.True(t, store.Session().IsAuthenticated)
	assert.Equal(t, "persisted", store.Token())

	broken := NewStore(&memoryTokens{token: "x", loadErr: errors.New("denied")}, nil)
	assert.False(t, broken.Session().IsAuthenticated)
}

func TestStoreWrongPasswordClearsToken(t *testing.T) {
	tokens := &memoryTokens{token: "old"}
	store := NewStore(tokens, nil)

	store.Dispatch(LoginRequested())
	store.Dispatch(LoginFailed("Invalid credentials"))

	session := store.Session()
	assert.False(t, session.IsAuthenticated)
	assert.Equal(t, "Invalid credentials", session.Error)
	assert.Empty(t, tokens.token)
	assert.Equal(t, 1, tokens.clears)
}

func TestStoreTouchesTokensOnlyOnLoginOutcomesAndLogout(t *testing.T) {
	tokens := &memoryTokens{}
	store := NewStore(tokens, nil)

	store.Dispatch(LoginRequested())
	store.Dispatch(RegisterRequested())
	store.Dispatch(RegisterSucceeded())
	store.Dispatch(FetchAllFailed("boom"))
	assert.Empty(t, tokens.saves)
	assert.Zero(t, tokens.clears)

	store.Dispatch(LoginSucceeded("tok", User{ID: "1"}))
	assert.Equal(t, []string{"tok"}, tokens.saves)

	store.Dispatch(Logout())
	assert.Equal(t, 1, tokens.clears)
	assert.Empty(t, store.Token())
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(FetchAllSucceeded([]map[string]any{raw("1", "firstName", "Ann")}))

	students := store.Students()
	students.Records[0].FirstName = "mutated"

	assert.Equal(t, "Ann", store.Students().Records[0].FirstName)
}

func TestStoreSubscribersSeeEveryDispatch(t *testing.T) {
	store := NewStore(nil, nil)
	var seen []ActionType
	cancel := store.Subscribe(func(a Action, snap Snapshot) {
		seen = append(seen, a.Type)
		if a.Type == TypeDeleteRequested {
			assert.True(t, snap.Students.Loading)
		}
	})

	store.Dispatch(DeleteRequested("1"))
	store.Dispatch(DeleteSucceeded("1"))
	cancel()
	store.Dispatch(FetchAllRequested())

	assert.Equal(t, []ActionType{TypeDeleteRequested, TypeDeleteSucceeded}, seen)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	store := NewStore(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Dispatch(CreateSucceeded(raw(string(rune('a' + i%10)))))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Students().Records, 10)
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")
	tokens := NewFileTokenStore(path)

	token, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, tokens.Save("abc.def"))
	token, err = tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	require.NoError(t, tokens.Save("second"))
	token, _ = tokens.Load()
	assert.Equal(t, "second", token)

	require.NoError(t, tokens.Clear())
	require.NoError(t, tokens.Clear())
	token, err = tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStoreWithFileTokensSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	first := NewStore(NewFileTokenStore(path), nil)
	first.Dispatch(LoginSucceeded("persisted", User{ID: "1"}))

	second := NewStore(NewFileTokenStore(path), nil)
	assert.True(t, second.Session().IsAuthenticated)
	assert.Equal(t, "persisted", second.Token())
}
