// Package exec provides a stub-friendly interface for running external commands.
package exec

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
)

// Stream names the child output a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// OutputSink receives child output one line at a time, as it arrives.
type OutputSink interface {
	Line(stream Stream, text string)
}

// SinkFunc adapts a function to OutputSink.
type SinkFunc func(stream Stream, text string)

func (f SinkFunc) Line(stream Stream, text string) { f(stream, text) }

// RunOpts holds optional parameters for command execution.
type RunOpts struct {
	Dir  string            // working directory (optional)
	Env  map[string]string // extra environment variables (overlay)
	Sink OutputSink        // receives output lines; nil discards them
}

// CommandRunner is the interface for running external commands.
type CommandRunner interface {
	// Run executes a command, forwarding its output to opts.Sink, and blocks
	// until the process exits and both streams are drained.
	// Returns the exit code when the process ran (even non-zero).
	// Returns an error only when the process could not be started or waited on.
	Run(ctx context.Context, name string, args []string, opts RunOpts) (int, error)
}

// RealRunner is the production implementation of CommandRunner using os/exec.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// maxLine bounds a single forwarded line.
const maxLine = 1024 * 1024

// Run starts the command and forwards stdout and stderr line by line.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, err
	}

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	sink := &lockedSink{sink: opts.Sink}
	var wg sync.WaitGroup
	wg.Add(2)
	go forward(stdout, Stdout, sink, &wg)
	go forward(stderr, Stderr, sink, &wg)
	// Pipes must be fully read before Wait closes them.
	wg.Wait()

	err = cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// LookPath reports whether a tool can be found on PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func forward(r io.Reader, stream Stream, sink OutputSink, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		sink.Line(stream, scanner.Text())
	}
	// Drain whatever is left if a line overflowed the buffer.
	_, _ = io.Copy(io.Discard, r)
}

// lockedSink serializes lines from the two stream readers.
type lockedSink struct {
	mu   sync.Mutex
	sink OutputSink
}

func (s *lockedSink) Line(stream Stream, text string) {
	if s.sink == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.Line(stream, text)
}
