package state

import (
	"io"
	"strings"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

type memoryTokens struct {
	token   string
	loadErr error
	saves   []string
	clears  int
}

func (m *memoryTokens) Load() (string, error) { return m.token, m.loadErr }

func (m *memoryTokens) Save(token string) error {
	m.token = token
	m.saves = append(m.saves, token)
	return nil
}

func (m *memoryTokens) Clear() error {
	m.token = ""
	m.clears++
	return nil
}

func raw(id string, fields ...any) map[string]any {
	out := map[string]any{"id": id}
	for i := 0; i+1 < len(fields); i += 2 {
		out[fields[i].(string)] = fields[i+1]
	}
	return out
}
