package tools

import (
	"context"
	"fmt"
)

// Manager holds the registry of tool pipelines and dispatches invocations
// by tool name.
type Manager struct {
	pipelines map[string]*Pipeline
	order     []string
}

func NewManager() *Manager {
	return &Manager{
		pipelines: make(map[string]*Pipeline),
	}
}

// Register adds a pipeline under its tool key. Registration order is
// preserved for listings.
func (m *Manager) Register(p *Pipeline) {
	name := p.Name()
	if _, exists := m.pipelines[name]; !exists {
		m.order = append(m.order, name)
	}
	m.pipelines[name] = p
}

// Get looks up a pipeline by tool name.
func (m *Manager) Get(name string) (*Pipeline, bool) {
	p, ok := m.pipelines[name]
	return p, ok
}

// Execute runs the named tool. An unknown name is an error; everything
// past dispatch is the pipeline's own uniform Result.
func (m *Manager) Execute(ctx context.Context, name, rawArgs string) (*Result, error) {
	p, ok := m.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return p.Invoke(ctx, rawArgs), nil
}

// Definitions returns all registered tool definitions in registration
// order.
func (m *Manager) Definitions() []Definition {
	defs := make([]Definition, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, m.pipelines[name].Definition())
	}
	return defs
}

// Count returns the number of registered tools.
func (m *Manager) Count() int {
	return len(m.pipelines)
}
