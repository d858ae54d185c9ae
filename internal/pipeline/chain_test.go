package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/voxmap/voxmap/internal/host"
)

type mockStage struct {
	name    string
	enabled bool
	run     func(ctx context.Context, sc *ScrapeContext) error
	order   *[]string
}

func (m *mockStage) Name() string  { return m.name }
func (m *mockStage) Enabled() bool { return m.enabled }

func (m *mockStage) Run(ctx context.Context, sc *ScrapeContext) error {
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
	if m.run != nil {
		return m.run(ctx, sc)
	}
	return nil
}

func newScrapeContext() *ScrapeContext {
	return NewScrapeContext(ScrapeEvent{Kind: host.EventWindowChange, PackageName: "com.example.app"})
}

func TestChainRunsStagesInOrder(t *testing.T) {
	var order []string
	chain := NewChain(
		&mockStage{name: "walk", enabled: true, order: &order},
		&mockStage{name: "commit", enabled: true, order: &order},
		&mockStage{name: "index", enabled: true, order: &order},
		&mockStage{name: "push", enabled: true, order: &order},
	)

	sc := newScrapeContext()
	if err := chain.Run(context.Background(), sc); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{"walk", "commit", "index", "push"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], name)
		}
	}
}

func TestChainSkipsDisabledStages(t *testing.T) {
	var order []string
	chain := NewChain(
		&mockStage{name: "walk", enabled: true, order: &order},
		&mockStage{name: "skip-me", enabled: false, order: &order},
		&mockStage{name: "commit", enabled: true, order: &order},
	)

	if err := chain.Run(context.Background(), newScrapeContext()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, name := range order {
		if name == "skip-me" {
			t.Fatalf("disabled stage ran: %v", order)
		}
	}
	if len(order) != 2 {
		t.Fatalf("order = %v, want 2 entries", order)
	}
}

func TestChainAbortsOnStageError(t *testing.T) {
	var order []string
	wantErr := errors.New("boom")
	chain := NewChain(
		&mockStage{name: "walk", enabled: true, order: &order},
		&mockStage{name: "commit", enabled: true, order: &order, run: func(ctx context.Context, sc *ScrapeContext) error {
			return wantErr
		}},
		&mockStage{name: "index", enabled: true, order: &order},
	)

	err := chain.Run(context.Background(), newScrapeContext())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(order) != 2 {
		t.Fatalf("order = %v, want 2 entries (index must not run)", order)
	}
}

func TestChainRecoversStagePanic(t *testing.T) {
	chain := NewChain(&mockStage{name: "panicky", enabled: true, run: func(ctx context.Context, sc *ScrapeContext) error {
		panic("unexpected")
	}})

	err := chain.Run(context.Background(), newScrapeContext())
	if err == nil {
		t.Fatal("expected error from recovered panic, got nil")
	}
}

func TestChainContinuesPastDiscard(t *testing.T) {
	var order []string
	chain := NewChain(
		&mockStage{name: "walk", enabled: true, order: &order, run: func(ctx context.Context, sc *ScrapeContext) error {
			sc.Discard("window torn down")
			return nil
		}},
		&mockStage{name: "commit", enabled: true, order: &order, run: func(ctx context.Context, sc *ScrapeContext) error {
			if sc.Discarded {
				return nil
			}
			t.Fatal("commit stage should have observed Discarded")
			return nil
		}},
	)

	sc := newScrapeContext()
	if err := chain.Run(context.Background(), sc); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !sc.Discarded {
		t.Fatal("expected sc.Discarded to be true")
	}
	if len(order) != 2 {
		t.Fatalf("order = %v, want both stages to still run", order)
	}
}

func TestChainTimingsRecordsEachStage(t *testing.T) {
	chain := NewChain(
		&mockStage{name: "walk", enabled: true},
		&mockStage{name: "commit", enabled: true},
	)
	if err := chain.Run(context.Background(), newScrapeContext()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	timings := chain.Timings()
	if _, ok := timings["walk"]; !ok {
		t.Error("expected timing for walk stage")
	}
	if _, ok := timings["commit"]; !ok {
		t.Error("expected timing for commit stage")
	}
}

func TestChainStagesReturnsCopy(t *testing.T) {
	chain := NewChain(&mockStage{name: "walk", enabled: true})
	stages := chain.Stages()
	stages[0] = &mockStage{name: "mutated", enabled: true}
	if chain.Stages()[0].Name() != "walk" {
		t.Fatal("Stages() should return a defensive copy")
	}
}
