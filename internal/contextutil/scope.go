package contextutil

import (
	"context"
	"sync"
)

const scopeKey contextKey = "scope"

// Scope collects facts learned while serving a request, such as the project
// of the presented API key. A nil *Scope ignores writes.
type Scope struct {
	mu      sync.Mutex
	project string
}

// WithScope returns a copy of ctx carrying a fresh Scope.
func WithScope(ctx context.Context) (context.Context, *Scope) {
	s := &Scope{}
	return context.WithValue(ctx, scopeKey, s), s
}

// ScopeFromContext returns the request Scope, or nil when none is set.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey).(*Scope)
	return s
}

func (s *Scope) SetProject(projectID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.project = projectID
	s.mu.Unlock()
}

func (s *Scope) Project() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}
