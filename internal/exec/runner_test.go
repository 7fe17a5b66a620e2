package exec

import (
	"context"
	"strings"
	"sync"
	"testing"
)

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Line(stream Stream, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, string(stream)+":"+text)
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestRun_ExitCode(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		expectCode int
	}{
		{"exit 0", []string{"-c", "exit 0"}, 0},
		{"exit 1", []string{"-c", "exit 1"}, 1},
		{"exit 42", []string{"-c", "exit 42"}, 42},
	}

	r := NewRealRunner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := r.Run(context.Background(), "sh", tt.args, RunOpts{})
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if code != tt.expectCode {
				t.Errorf("exit code = %d, want %d", code, tt.expectCode)
			}
		})
	}
}

func TestRun_ForwardsLinesFromBothStreams(t *testing.T) {
	sink := &recordingSink{}
	code, err := NewRealRunner().Run(context.Background(), "sh",
		[]string{"-c", "echo one; echo two; echo oops >&2"}, RunOpts{Sink: sink})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}

	lines := sink.all()
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"stdout:one", "stdout:two", "stderr:oops"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, lines)
		}
	}

	// stdout order is preserved within the stream
	var stdout []string
	for _, l := range lines {
		if strings.HasPrefix(l, "stdout:") {
			stdout = append(stdout, l)
		}
	}
	if len(stdout) != 2 || stdout[0] != "stdout:one" || stdout[1] != "stdout:two" {
		t.Errorf("stdout lines = %q", stdout)
	}
}

func TestRun_AllOutputDeliveredBeforeReturn(t *testing.T) {
	sink := &recordingSink{}
	_, err := NewRealRunner().Run(context.Background(), "sh",
		[]string{"-c", "for i in 1 2 3 4 5 6 7 8 9 10; do echo line$i; done; exit 3"}, RunOpts{Sink: sink})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := len(sink.all()); got != 10 {
		t.Errorf("got %d lines before return, want 10", got)
	}
}

func TestRun_Dir(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	_, err := NewRealRunner().Run(context.Background(), "pwd", nil, RunOpts{Dir: dir, Sink: sink})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	lines := sink.all()
	if len(lines) != 1 || !strings.HasSuffix(lines[0], dir) {
		t.Errorf("pwd output = %q, want suffix %q", lines, dir)
	}
}

func TestRun_Env(t *testing.T) {
	sink := &recordingSink{}
	_, err := NewRealRunner().Run(context.Background(), "sh", []string{"-c", "echo $SCAFFOLD_TEST"},
		RunOpts{Env: map[string]string{"SCAFFOLD_TEST": "hello"}, Sink: sink})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if lines := sink.all(); len(lines) != 1 || lines[0] != "stdout:hello" {
		t.Errorf("output = %q", lines)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	code, err := NewRealRunner().Run(context.Background(), "dotscaffold-no-such-tool", nil, RunOpts{})
	if err == nil {
		t.Fatal("expected launch error for missing binary")
	}
	if code != -1 {
		t.Errorf("exit code = %d, want -1", code)
	}
}

func TestRun_NilSink(t *testing.T) {
	code, err := NewRealRunner().Run(context.Background(), "sh", []string{"-c", "echo ignored"}, RunOpts{})
	if err != nil || code != 0 {
		t.Errorf("Run() = %d, %v", code, err)
	}
}

func TestSinkFunc(t *testing.T) {
	var got string
	SinkFunc(func(s Stream, text string) { got = string(s) + "|" + text }).Line(Stderr, "x")
	if got != "stderr|x" {
		t.Errorf("got %q", got)
	}
}
