// Package shell provides the process executor adapter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/syntax"
)

// DefaultTailLines is the number of output lines kept for error reports.
const DefaultTailLines = 60

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger    ports.Logger
	tailLines int
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger:    logger,
		tailLines: DefaultTailLines,
	}
}

// Execute runs cmd with the merged environment.
// Environment priority (low to high):
// 1. os.Environ() (System base)
// 2. cmd.Env (Overrides)
// 3. cmd.PrependPath (Directories prepended to PATH-like variables)
//
// Output is streamed line by line to the vertex carried by ctx, or to the
// logger when there is none. The last lines are kept in the result.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command) (domain.ExecResult, error) {
	result := domain.ExecResult{ExitCode: -1}
	if cmd.Name == "" {
		return result, zerr.New("empty command")
	}

	env := resolveEnvironment(os.Environ(), cmd.Env, cmd.PrependPath)

	// Resolve the executable using the child's PATH, not ours.
	executable := cmd.Name
	if !filepath.IsAbs(executable) && !strings.ContainsRune(executable, filepath.Separator) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // commands come from recipes
	if len(c.Args) > 0 {
		c.Args[0] = cmd.Name
	}
	c.Dir = cmd.Dir
	c.Env = env

	tail := newTail(e.tailLines)
	stdout, stderr := e.outputs(ctx)
	outWriter := newLineWriter(stdout, tail)
	errWriter := newLineWriter(stderr, tail)
	c.Stdout = outWriter
	c.Stderr = errWriter

	e.echo(ctx, cmd)

	runErr := c.Run()
	outWriter.Flush()
	errWriter.Flush()
	result.Output = tail.Lines()

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		err := zerr.With(zerr.Wrap(runErr, "command failed"), "exit_code", result.ExitCode)
		return result, zerr.With(err, "command", cmd.Name)
	}

	result.ExitCode = 0
	return result, nil
}

// outputs returns the stdout and stderr sinks for ctx.
func (e *Executor) outputs(ctx context.Context) (stdout, stderr lineSink) {
	if v, ok := ports.VertexFromContext(ctx); ok {
		return writerSink{w: v.Stdout()}, writerSink{w: v.Stderr()}
	}
	return loggerSink{logger: e.logger}, loggerSink{logger: e.logger, err: true}
}

// echo records the shell-quoted command line before it runs.
func (e *Executor) echo(ctx context.Context, cmd domain.Command) {
	line := "$ " + QuoteCommand(cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		line += "  (in " + cmd.Dir + ")"
	}
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelDebug, line)
		return
	}
	e.logger.Info(line)
}

// QuoteCommand renders a command line that a POSIX shell would parse back
// into the same arguments.
func QuoteCommand(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			q = a
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

type lineSink interface {
	line(s string)
}

type writerSink struct {
	w io.Writer
}

func (s writerSink) line(l string) {
	_, _ = io.WriteString(s.w, l+"\n")
}

type loggerSink struct {
	logger ports.Logger
	err    bool
}

func (s loggerSink) line(l string) {
	if s.err {
		s.logger.Warn(l)
		return
	}
	s.logger.Info(l)
}

// lineWriter buffers partial writes until a full line is available.
type lineWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	sink lineSink
	tail *tail
}

func newLineWriter(sink lineSink, t *tail) *lineWriter {
	return &lineWriter{sink: sink, tail: t}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(string(w.buf.Next(idx+1)[:idx]), "\r")
		w.emit(line)
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	w.sink.line(line)
	w.tail.add(line)
}

// tail keeps the last n lines written by both output streams.
type tail struct {
	mu    sync.Mutex
	n     int
	lines []string
}

func newTail(n int) *tail {
	return &tail{n: n}
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// resolveEnvironment merges environment variables with the defined priority.
func resolveEnvironment(sysEnv []string, overrides map[string]string, prepend map[string][]string) []string {
	envMap := make(map[string]string, len(sysEnv))
	var order []string
	set := func(k, v string) {
		if _, exists := envMap[k]; !exists {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			set(k, v)
		}
	}
	for k, v := range overrides {
		set(k, v)
	}
	for k, dirs := range prepend {
		if len(dirs) == 0 {
			continue
		}
		joined := strings.Join(dirs, string(os.PathListSeparator))
		if existing := envMap[k]; existing != "" {
			joined += string(os.PathListSeparator) + existing
		}
		set(k, joined)
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
