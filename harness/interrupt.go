package harness

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
)

// CancelScope selects how far an interrupt reaches during compression.
type CancelScope string

const (
	// ScopeCodec stops only the codec whose level loop is running.
	ScopeCodec CancelScope = "codec"
	// ScopeRun stops the whole benchmark.
	ScopeRun CancelScope = "run"
)

// ParseCancelScope validates a --cancel-scope value.
func ParseCancelScope(s string) (CancelScope, error) {
	switch CancelScope(s) {
	case ScopeCodec, ScopeRun:
		return CancelScope(s), nil
	default:
		return "", fmt.Errorf("unknown cancel scope %q (want codec or run)", s)
	}
}

// Interrupts routes external interrupts to the innermost active scope.
// Each interrupt cancels exactly one scope.
type Interrupts struct {
	mu     sync.Mutex
	scopes []*scope
}

type scope struct {
	cancel context.CancelFunc
}

// Scope derives a context that the next interrupt cancels, taking
// precedence over enclosing scopes. release must be called when the
// scope ends.
func (in *Interrupts) Scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	s := &scope{cancel: cancel}

	in.mu.Lock()
	in.scopes = append(in.scopes, s)
	in.mu.Unlock()

	release := func() {
		in.remove(s)
		cancel()
	}

	return ctx, release
}

// Interrupt cancels the innermost scope. It reports false when no scope
// is active.
func (in *Interrupts) Interrupt() bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.scopes) == 0 {
		return false
	}

	last := in.scopes[len(in.scopes)-1]
	in.scopes = in.scopes[:len(in.scopes)-1]
	last.cancel()

	return true
}

// InterruptAll cancels every active scope. It reports false when no
// scope is active.
func (in *Interrupts) InterruptAll() bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.scopes) == 0 {
		return false
	}

	for i := len(in.scopes) - 1; i >= 0; i-- {
		in.scopes[i].cancel()
	}
	in.scopes = nil

	return true
}

// Listen routes signals received on sigs until ctx is done. SIGTERM
// cancels every scope; any other signal is an Interrupt.
func (in *Interrupts) Listen(ctx context.Context, sigs <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if sig == syscall.SIGTERM {
				in.InterruptAll()
				continue
			}

			in.Interrupt()
		}
	}
}

func (in *Interrupts) remove(s *scope) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i, cur := range in.scopes {
		if cur == s {
			in.scopes = append(in.scopes[:i], in.scopes[i+1:]...)

			return
		}
	}
}
