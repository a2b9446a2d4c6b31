package shell

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Response is a scripted result for a command line
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error

	// Run is called before the response is returned, so tests can mimic a
	// command's side effects such as writing files.
	Run func(cmd Command) error
}

// MockRunner is a mock implementation of Runner for testing
type MockRunner struct {
	mu        sync.Mutex
	exact     map[string]Response
	prefixes  []prefixResponse
	calls     []Command
	Unmatched *Response
}

type prefixResponse struct {
	prefix   string
	response Response
}

// NewMockRunner creates a new MockRunner
func NewMockRunner() *MockRunner {
	return &MockRunner{
		exact: make(map[string]Response),
	}
}

// On scripts the response for an exact command line
func (m *MockRunner) On(line string, resp Response) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[line] = resp
	return m
}

// OnPrefix scripts the response for every command line starting with prefix.
// Exact matches win; among prefixes the latest registration wins.
func (m *MockRunner) OnPrefix(prefix string, resp Response) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes = append(m.prefixes, prefixResponse{prefix: prefix, response: resp})
	return m
}

// Calls returns the commands run so far
func (m *MockRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.calls...)
}

// Lines returns the command lines run so far
func (m *MockRunner) Lines() []string {
	calls := m.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line
	}
	return lines
}

func (m *MockRunner) Run(ctx context.Context, cmd Command) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	resp, ok := m.lookup(cmd.Line)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &CommandError{Line: cmd.Line, Err: err}
	}

	if !ok {
		return "", &CommandError{
			Line:     cmd.Line,
			ExitCode: 127,
			Stderr:   program(cmd.Line) + ": command not found",
		}
	}

	if resp.Run != nil {
		if err := resp.Run(cmd); err != nil {
			return "", err
		}
	}

	stdout := resp.Stdout
	if cmd.Stdout != nil {
		if _, err := io.WriteString(cmd.Stdout, stdout); err != nil {
			return "", err
		}
		stdout = ""
	}

	if resp.Err != nil {
		return stdout, resp.Err
	}
	if resp.ExitCode != 0 {
		return stdout, &CommandError{Line: cmd.Line, ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return stdout, nil
}

func (m *MockRunner) lookup(line string) (Response, bool) {
	if resp, ok := m.exact[line]; ok {
		return resp, true
	}
	for i := len(m.prefixes) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, m.prefixes[i].prefix) {
			return m.prefixes[i].response, true
		}
	}
	if m.Unmatched != nil {
		return *m.Unmatched, true
	}
	return Response{}, false
}

func program(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
