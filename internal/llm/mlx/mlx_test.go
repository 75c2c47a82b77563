// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mlx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mdtranslate/internal/httputil"
	"github.com/pdiddy/mdtranslate/internal/llm"
	"github.com/pdiddy/mdtranslate/internal/logger"
)

func init() {
	httputil.PollBaseDelay = time.Millisecond
}

// fakeProcess records Stop calls; exiting early is simulated by closing done.
type fakeProcess struct {
	done    chan struct{}
	stopped int
	stopErr error
}

func newFakeProcess() *fakeProcess { return &fakeProcess{done: make(chan struct{})} }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Stop() error {
	p.stopped++
	return p.stopErr
}

// mockExecutor records the command line and returns a configured process.
type mockExecutor struct {
	onPath   bool
	startErr error
	proc     *fakeProcess
	gotName  string
	gotArgs  []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.onPath {
		return "/usr/local/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Start(name string, args []string, _ io.Writer) (process, error) {
	m.gotName = name
	m.gotArgs = args
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.proc, nil
}

// readyServer starts an httptest server answering /v1/models and /v1/completions
// and returns the port it listens on.
func readyServer(t *testing.T) int {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.Write([]byte(`{"data":[]}`))
		case "/v1/completions":
			w.Write([]byte(`{"choices":[{"text":"はい"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	_, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

// freePort returns a port nothing is listening on.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{})
	assert.Equal(t, DefaultBinary, r.cfg.Binary)
	assert.Equal(t, DefaultPort, r.cfg.Port)
	assert.Equal(t, DefaultStartupTimeout, r.cfg.StartupTimeout)
	assert.Equal(t, "http://127.0.0.1:8765", r.BaseURL())
}

func TestArgs(t *testing.T) {
	r := newRuntime(Config{Port: 9000}, &mockExecutor{})

	assert.Equal(t,
		[]string{"--model", "m", "--host", "127.0.0.1", "--port", "9000"},
		r.args("m", llm.LoadOptions{}))
	assert.Equal(t,
		[]string{"--model", "m", "--host", "127.0.0.1", "--port", "9000", "--trust-remote-code"},
		r.args("m", llm.LoadOptions{TrustRemoteCode: true}))
}

func TestLoad_Ready(t *testing.T) {
	port := readyServer(t)
	exec := &mockExecutor{onPath: true, proc: newFakeProcess()}
	r := newRuntime(Config{Port: port, StartupTimeout: 5 * time.Second}, exec)

	m, err := r.Load(context.Background(), "mlx-community/plamo-2-translate", llm.LoadOptions{TrustRemoteCode: true})
	require.NoError(t, err)

	assert.Equal(t, DefaultBinary, exec.gotName)
	assert.Contains(t, exec.gotArgs, "--trust-remote-code")
	assert.Equal(t, "mlx-community/plamo-2-translate", m.Name())

	out, err := m.Generate(context.Background(), "prompt", llm.GenerateOptions{MaxTokens: 5})
	require.NoError(t, err)
	assert.Equal(t, "はい", out)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, exec.proc.stopped)
}

func TestLoad_BinaryMissing(t *testing.T) {
	r := newRuntime(Config{}, &mockExecutor{onPath: false})
	_, err := r.Load(context.Background(), "m", llm.LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found on PATH")
}

func TestLoad_StartFails(t *testing.T) {
	r := newRuntime(Config{}, &mockExecutor{onPath: true, startErr: errors.New("permission denied")})
	_, err := r.Load(context.Background(), "m", llm.LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestLoad_ProcessExitsEarly(t *testing.T) {
	proc := newFakeProcess()
	close(proc.done)
	exec := &mockExecutor{onPath: true, proc: proc}
	r := newRuntime(Config{Port: freePort(t), StartupTimeout: 5 * time.Second}, exec)

	_, err := r.Load(context.Background(), "m", llm.LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before serving")
	assert.Equal(t, 1, proc.stopped)
}

func TestLoad_StartupTimeout(t *testing.T) {
	proc := newFakeProcess()
	exec := &mockExecutor{onPath: true, proc: proc}
	r := newRuntime(Config{Port: freePort(t), StartupTimeout: 30 * time.Millisecond}, exec)

	_, err := r.Load(context.Background(), "m", llm.LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become ready")
	assert.Equal(t, 1, proc.stopped)
}

func TestLoad_StopFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	prev := logger.Output()
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(prev) })

	proc := newFakeProcess()
	proc.stopErr = errors.New("operation not permitted")
	exec := &mockExecutor{onPath: true, proc: proc}
	r := newRuntime(Config{Port: freePort(t), StartupTimeout: 30 * time.Millisecond}, exec)

	_, err := r.Load(context.Background(), "m", llm.LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become ready")
	assert.Contains(t, logs.String(), "[WARN] mlx: stopping mlx_lm.server after failed start: operation not permitted")
}
