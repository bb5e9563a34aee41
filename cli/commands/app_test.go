package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/cli/keystore"
	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/migrate"
	"github.com/petal-labs/aide/providers/anthropic"
)

// memKeystore is an in-memory keystore.
type memKeystore struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memKeystore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[name] = value
	return nil
}

func (m *memKeystore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[name]
	if !ok {
		return "", &keystore.ErrKeyNotFound{Name: name}
	}
	return v, nil
}

func (m *memKeystore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[name]; !ok {
		return &keystore.ErrKeyNotFound{Name: name}
	}
	delete(m.keys, name)
	return nil
}

func (m *memKeystore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.keys))
	for name := range m.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// fakeTransport answers exchanges locally.
type fakeTransport struct {
	mu    sync.Mutex
	calls int
	last  *anthropic.Exchange
	words []string
	err   error
}

func (f *fakeTransport) Exchange(_ context.Context, ex *anthropic.Exchange) (*core.Response, error) {
	f.mu.Lock()
	f.calls++
	f.last = ex
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	text := ""
	for _, w := range f.words {
		if ex.OnProgress != nil {
			ex.OnProgress(w)
		}
		text += w
	}
	return &core.Response{
		ID:      "msg_cli",
		Model:   ex.Params.Model,
		Role:    core.RoleAssistant,
		Content: []core.ContentBlock{{Type: "text", Text: text}},
		Usage:   &core.Usage{InputTokens: 5, OutputTokens: 2},
	}, nil
}

func (f *fakeTransport) exchange() (*anthropic.Exchange, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.calls
}

type harness struct {
	t         *testing.T
	cfgPath   string
	keys      *memKeystore
	env       map[string]string
	transport *fakeTransport
	home      string
	stdin     string
	noFake    bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:         t,
		cfgPath:   filepath.Join(t.TempDir(), "config.yaml"),
		keys:      &memKeystore{keys: map[string]string{"anthropic": "sk-stored"}},
		env:       map[string]string{},
		transport: &fakeTransport{words: []string{"Hel", "lo"}},
		home:      t.TempDir(),
	}
}

func (h *harness) app() *App {
	opts := []AppOption{
		WithKeystoreFactory(func() (keystore.Keystore, error) { return h.keys, nil }),
		WithEnv(func(k string) string { return h.env[k] }),
		WithMigrateEnv(func() migrate.Env { return migrate.Env{GOOS: "linux", Home: h.home} }),
		WithLogger(zap.NewNop()),
	}
	if !h.noFake {
		opts = append(opts, WithTransport(h.transport))
	}
	return NewApp(opts...)
}

// run executes the CLI with args and returns stdout and stderr.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	a := h.app()
	a.stdin = strings.NewReader(h.stdin)
	a.stdout = &stdout
	a.stderr = &stderr
	a.root.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := a.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
