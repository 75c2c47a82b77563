// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mlx serves translation models by launching a local mlx_lm.server
// process for the lifetime of one model session. Once the server answers,
// generation goes through its OpenAI-compatible completions endpoint.
package mlx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/pdiddy/mdtranslate/internal/httputil"
	"github.com/pdiddy/mdtranslate/internal/llm"
	"github.com/pdiddy/mdtranslate/internal/llm/openai"
	"github.com/pdiddy/mdtranslate/internal/logger"
)

var (
	_ llm.Runtime = (*Runtime)(nil)
	_ llm.Model   = (*Model)(nil)
)

// Default configuration values.
const (
	DefaultBinary         = "mlx_lm.server"
	DefaultPort           = 8765
	DefaultStartupTimeout = 5 * time.Minute
	host                  = "127.0.0.1"
)

// stopGrace is how long Close waits after an interrupt before killing.
var stopGrace = 10 * time.Second

// Config holds configuration for the launched server.
type Config struct {
	// Binary is the server executable (default: mlx_lm.server).
	Binary string

	// Port is the local port to listen on (default: 8765).
	Port int

	// StartupTimeout bounds model download and load (default: 5m).
	StartupTimeout time.Duration

	// Timeout is the per-request timeout for generation.
	Timeout time.Duration

	// Stderr receives the server's own log output (default: discarded).
	Stderr io.Writer
}

// process is a started server.
type process interface {
	// Done is closed when the process exits.
	Done() <-chan struct{}
	// Stop interrupts the process and waits for it to exit.
	Stop() error
}

// executor abstracts process start-up for testing.
type executor interface {
	LookPath(file string) (string, error)
	Start(name string, args []string, stderr io.Writer) (process, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Start(name string, args []string, stderr io.Writer) (process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &osProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type osProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (p *osProcess) Done() <-chan struct{} { return p.done }

func (p *osProcess) Stop() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		return p.cmd.Process.Kill()
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(stopGrace):
		return p.cmd.Process.Kill()
	}
}

// Runtime launches mlx_lm.server on Load.
type Runtime struct {
	cfg  Config
	exec executor
}

// New creates a runtime with the given configuration.
func New(cfg Config) *Runtime {
	return newRuntime(cfg, &osExecutor{})
}

func newRuntime(cfg Config, exec executor) *Runtime {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = DefaultStartupTimeout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	return &Runtime{cfg: cfg, exec: exec}
}

// BaseURL returns the root URL the launched server listens on.
func (r *Runtime) BaseURL() string {
	return "http://" + host + ":" + strconv.Itoa(r.cfg.Port)
}

// args builds the server command line.
func (r *Runtime) args(id string, opts llm.LoadOptions) []string {
	args := []string{"--model", id, "--host", host, "--port", strconv.Itoa(r.cfg.Port)}
	if opts.TrustRemoteCode {
		args = append(args, "--trust-remote-code")
	}
	return args
}

// Load starts the server for id and waits until it answers. If the server
// exits or does not come up within StartupTimeout the process is stopped
// and an error is returned.
func (r *Runtime) Load(ctx context.Context, id string, opts llm.LoadOptions) (llm.Model, error) {
	if _, err := r.exec.LookPath(r.cfg.Binary); err != nil {
		return nil, fmt.Errorf("mlx: %s not found on PATH: %w", r.cfg.Binary, err)
	}

	proc, err := r.exec.Start(r.cfg.Binary, r.args(id, opts), r.cfg.Stderr)
	if err != nil {
		return nil, fmt.Errorf("mlx: starting %s: %w", r.cfg.Binary, err)
	}

	server := openai.New(openai.Config{BaseURL: r.BaseURL(), Timeout: r.cfg.Timeout})

	waitCtx, cancel := context.WithTimeout(ctx, r.cfg.StartupTimeout)
	defer cancel()

	exited := make(chan struct{})
	go func() {
		select {
		case <-proc.Done():
			close(exited)
			cancel()
		case <-waitCtx.Done():
		}
	}()

	probe := &http.Client{Timeout: 5 * time.Second}
	if err := httputil.WaitReady(waitCtx, probe, server.ModelsURL()); err != nil {
		if stopErr := proc.Stop(); stopErr != nil && !errors.Is(stopErr, os.ErrProcessDone) {
			logger.Warn("mlx: stopping %s after failed start: %v", r.cfg.Binary, stopErr)
		}
		select {
		case <-exited:
			return nil, fmt.Errorf("mlx: %s exited before serving %s", r.cfg.Binary, id)
		default:
		}
		return nil, fmt.Errorf("mlx: %s did not become ready: %w", r.cfg.Binary, err)
	}

	return &Model{Model: server.Attach(id), proc: proc}, nil
}

// Model is a model served by a launched mlx_lm.server.
type Model struct {
	llm.Model
	proc process

	once    sync.Once
	stopErr error
}

// Close stops the server process. It is safe to call more than once.
func (m *Model) Close() error {
	m.once.Do(func() {
		if err := m.proc.Stop(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			m.stopErr = fmt.Errorf("mlx: stopping server: %w", err)
		}
	})
	return m.stopErr
}
