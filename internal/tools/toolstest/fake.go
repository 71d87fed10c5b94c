// Package toolstest provides a scripted tools.Runner for tests.
package toolstest

import (
	"context"
	"sync"

	"github.com/signalnine/dockscore/internal/tools"
)

type Handler func(cmd tools.Command) (*tools.Result, error)

// Fake dispatches commands by program name and records every call.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []tools.Command
}

func New() *Fake {
	return &Fake{handlers: map[string]Handler{}}
}

func (f *Fake) Handle(name string, h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	return f
}

func (f *Fake) Run(ctx context.Context, cmd tools.Command) (*tools.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h, ok := f.handlers[cmd.Name]
	f.mu.Unlock()
	if !ok {
		return &tools.Result{ExitCode: 127}, nil
	}
	return h(cmd)
}

// Calls returns the recorded commands, optionally filtered by program name.
func (f *Fake) Calls(name ...string) []tools.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(name) == 0 {
		return append([]tools.Command(nil), f.calls...)
	}
	var out []tools.Command
	for _, c := range f.calls {
		if c.Name == name[0] {
			out = append(out, c)
		}
	}
	return out
}

func Stdout(s string) *tools.Result {
	return &tools.Result{Stdout: []byte(s)}
}
