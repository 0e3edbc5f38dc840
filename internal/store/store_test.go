package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/Joseda-hg/todolist/internal/model"
)

type memoryBackend struct {
	saved   []model.Task
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryBackend) Load(context.Context) ([]model.Task, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]model.Task, len(m.saved))
	copy(out, m.saved)
	return out, nil
}

func (m *memoryBackend) Save(_ context.Context, tasks []model.Task) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = make([]model.Task, len(tasks))
	copy(m.saved, tasks)
	return nil
}

func TestAddTrimsAndAppends(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	for _, input := range []string{"Buy milk", "  Write report  ", "\tcall mom\n"} {
		before := store.Len()
		changed, err := store.Add(ctx, input)
		if err != nil {
			t.Fatalf("add %q: %v", input, err)
		}
		if !changed {
			t.Fatalf("expected add %q to change the list", input)
		}
		if store.Len() != before+1 {
			t.Fatalf("expected length %d, got %d", before+1, store.Len())
		}
		last, _ := store.At(store.Len() - 1)
		if last.Completed {
			t.Fatalf("expected new task to be pending")
		}
		if last.ID == "" {
			t.Fatalf("expected new task to get an ID")
		}
	}

	tasks := store.Tasks()
	if tasks[1].Text != "Write report" || tasks[2].Text != "call mom" {
		t.Fatalf("expected trimmed text, got %q and %q", tasks[1].Text, tasks[2].Text)
	}
	if backend.saves != 3 {
		t.Fatalf("expected a save per add, got %d", backend.saves)
	}
}

func TestAddRejectsBlankText(t *testing.T) {
	store, backend := newTestStore(t)

	for _, input := range []string{"", "   ", "\t\n"} {
		changed, err := store.Add(context.Background(), input)
		if err != nil {
			t.Fatalf("add %q: %v", input, err)
		}
		if changed {
			t.Fatalf("expected add %q to be a no-op", input)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty list, got %d", store.Len())
	}
	if backend.saves != 0 {
		t.Fatalf("expected no saves, got %d", backend.saves)
	}
}

func TestToggleAtIsAnInvolution(t *testing.T) {
	store, _ := newTestStore(t, "a", "b")
	ctx := context.Background()

	if _, err := store.ToggleAt(ctx, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	task, _ := store.At(1)
	if !task.Completed {
		t.Fatalf("expected task to be completed after one toggle")
	}
	if _, err := store.ToggleAt(ctx, 1); err != nil {
		t.Fatalf("toggle again: %v", err)
	}
	task, _ = store.At(1)
	if task.Completed {
		t.Fatalf("expected task to be pending after two toggles")
	}
}

func TestCompleteAtIsIdempotent(t *testing.T) {
	store, backend := newTestStore(t, "a")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		changed, err := store.CompleteAt(ctx, 0)
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if !changed {
			t.Fatalf("expected complete to report a change")
		}
		task, _ := store.At(0)
		if !task.Completed {
			t.Fatalf("expected task to be completed")
		}
	}
	if backend.saves != 3 {
		t.Fatalf("expected seed save plus one per complete, got %d", backend.saves)
	}
}

func TestOutOfRangeIsNoOp(t *testing.T) {
	store, backend := newTestStore(t, "a")
	ctx := context.Background()
	saves := backend.saves

	for _, index := range []int{-1, 1, 42} {
		checks := map[string]func() (bool, error){
			"toggle":   func() (bool, error) { return store.ToggleAt(ctx, index) },
			"complete": func() (bool, error) { return store.CompleteAt(ctx, index) },
			"edit":     func() (bool, error) { return store.EditAt(ctx, index, "new") },
			"delete":   func() (bool, error) { return store.DeleteAt(ctx, index) },
		}
		for name, op := range checks {
			changed, err := op()
			if err != nil {
				t.Fatalf("%s(%d): %v", name, index, err)
			}
			if changed {
				t.Fatalf("expected %s(%d) to be a no-op", name, index)
			}
		}
	}
	if backend.saves != saves {
		t.Fatalf("expected no extra saves, got %d", backend.saves-saves)
	}
}

func TestEditAt(t *testing.T) {
	store, _ := newTestStore(t, "old")
	ctx := context.Background()

	for _, blank := range []string{"", "   "} {
		if changed, _ := store.EditAt(ctx, 0, blank); changed {
			t.Fatalf("expected blank edit to be rejected")
		}
		task, _ := store.At(0)
		if task.Text != "old" {
			t.Fatalf("expected text to stay 'old', got %q", task.Text)
		}
	}

	if _, err := store.EditAt(ctx, 0, " New "); err != nil {
		t.Fatalf("edit: %v", err)
	}
	task, _ := store.At(0)
	if task.Text != "New" {
		t.Fatalf("expected text 'New', got %q", task.Text)
	}
}

func TestDeleteAtShiftsLaterTasks(t *testing.T) {
	store, backend := newTestStore(t, "a", "b", "c", "d")
	before := store.Tasks()

	if _, err := store.DeleteAt(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after := store.Tasks()
	if len(after) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(after))
	}
	if store.IndexOf(before[1].ID) != -1 {
		t.Fatalf("expected deleted task to be gone")
	}
	for i, want := range []model.Task{before[0], before[2], before[3]} {
		if after[i].ID != want.ID {
			t.Fatalf("expected %q at %d, got %q", want.Text, i, after[i].Text)
		}
	}
	if len(backend.saved) != 3 {
		t.Fatalf("expected persisted list of 3, got %d", len(backend.saved))
	}
}

func TestStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		store, _ := newTestStore(t)
		got := store.Stats()
		if got != (model.Stats{}) {
			t.Fatalf("expected zero stats, got %+v", got)
		}
	})

	t.Run("two of three", func(t *testing.T) {
		store, _ := newTestStore(t, "a", "b", "c")
		ctx := context.Background()
		_, _ = store.CompleteAt(ctx, 0)
		_, _ = store.CompleteAt(ctx, 2)

		got := store.Stats()
		want := model.Stats{Total: 3, Completed: 2, Pending: 1, PercentComplete: 66.7}
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	})
}

func TestLoadDegradesToEmpty(t *testing.T) {
	cases := map[string]error{
		"missing":   fmt.Errorf("open todos.json: %w", fs.ErrNotExist),
		"malformed": errors.New("invalid task document"),
	}
	for name, loadErr := range cases {
		t.Run(name, func(t *testing.T) {
			backend := &memoryBackend{loadErr: loadErr}
			store := New(backend, nil)
			tasks := store.Load(context.Background())
			if len(tasks) != 0 || store.Len() != 0 {
				t.Fatalf("expected empty list, got %d", len(tasks))
			}
		})
	}
}

func TestLoadRoundTrip(t *testing.T) {
	store, backend := newTestStore(t, "a", "b")
	_, _ = store.ToggleAt(context.Background(), 0)
	if err := store.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := New(backend, nil)
	loaded := fresh.Load(context.Background())
	original := store.Tasks()
	if len(loaded) != len(original) {
		t.Fatalf("expected %d tasks, got %d", len(original), len(loaded))
	}
	for i := range original {
		if loaded[i].Text != original[i].Text || loaded[i].Completed != original[i].Completed {
			t.Fatalf("task %d differs: %+v vs %+v", i, loaded[i], original[i])
		}
		if loaded[i].ID == "" {
			t.Fatalf("expected loaded task %d to get an ID", i)
		}
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	backend := &memoryBackend{saveErr: errors.New("disk full")}
	store := New(backend, nil)

	changed, err := store.Add(context.Background(), "keep me")
	if !changed {
		t.Fatalf("expected add to apply")
	}
	if err == nil {
		t.Fatalf("expected save error")
	}
	if !errors.Is(err, backend.saveErr) {
		t.Fatalf("expected wrapped disk error, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected task kept in memory")
	}
	if !store.SavedAt().IsZero() {
		t.Fatalf("expected no successful save time")
	}
}

func newTestStore(t *testing.T, texts ...string) (*Store, *memoryBackend) {
	t.Helper()
	backend := &memoryBackend{}
	store := New(backend, nil)
	store.Load(context.Background())
	for _, text := range texts {
		if _, err := store.Add(context.Background(), text); err != nil {
			t.Fatalf("seed %q: %v", text, err)
		}
	}
	if len(texts) > 0 {
		backend.saves = 1
	}
	return store, backend
}
