package agent

import (
	"testing"

	"github.com/agentpanel/agentpanel/internal/logger"
)

func registerScripted(m *Manager, tag string) {
	m.Register(tag, func() (*Adapter, error) {
		p := &scriptedProvider{replies: map[string]string{"model-a": "ok"}}
		return NewAdapter(tag, p, "model-a", nil, 1024, logger.NewNop()), nil
	})
}

func TestManagerReusesMatchingAdapter(t *testing.T) {
	m := NewManager()
	registerScripted(m, "alpha")
	registerScripted(m, "beta")

	a1, err := m.Adapter("alpha")
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	a2, err := m.Adapter("alpha")
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	if a1 != a2 {
		t.Fatalf("expected the held instance to be reused")
	}

	b, err := m.Adapter("beta")
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	if b == a1 || b.Name() != "beta" {
		t.Fatalf("expected a fresh beta adapter, got %q", b.Name())
	}
}

func TestManagerSwitchRebuilds(t *testing.T) {
	m := NewManager()
	registerScripted(m, "alpha")

	a1, err := m.Adapter("alpha")
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	a2, err := m.Switch("alpha")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if a1 == a2 {
		t.Fatalf("switch must build a fresh instance")
	}
}

func TestManagerUnknownType(t *testing.T) {
	m := NewManager()
	if _, err := m.Adapter("nope"); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestManagerTypes(t *testing.T) {
	m := NewManager()
	registerScripted(m, "Beta")
	registerScripted(m, "alpha")

	types := m.Types()
	if len(types) != 2 || types[0] != "alpha" || types[1] != "beta" {
		t.Fatalf("unexpected types: %v", types)
	}
}
