package progress

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type memRepo struct {
	mu      sync.Mutex
	saved   map[key]Record
	deleted []string
	err     error

	// When set, SaveMastery signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func newMemRepo() *memRepo { return &memRepo{saved: make(map[key]Record)} }

func (m *memRepo) SaveMastery(_ context.Context, r Record) error {
	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved[key{r.StudentID, r.Topic}] = r
	return nil
}

func (m *memRepo) DeleteMastery(_ context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, studentID)
	for k := range m.saved {
		if k.student == studentID {
			delete(m.saved, k)
		}
	}
	return nil
}

func TestRecordResult_Accumulates(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()

	if _, ok := tr.StrengthOf("s1", "Probability"); ok {
		t.Fatal("expected no record before first answer")
	}

	for _, c := range []bool{true, true, true, true} {
		if _, err := tr.RecordResult(ctx, "s1", "Probability", c); err != nil {
			t.Fatal(err)
		}
	}
	r, ok := tr.Get("s1", "probability")
	if !ok || r.Correct != 4 || r.Total != 4 {
		t.Fatalf("got %+v, want 4/4", r)
	}
	if s, _ := tr.StrengthOf("s1", "  PROBABILITY "); s != StrengthStrong {
		t.Errorf("strength = %s, want strong", s)
	}

	for _, c := range []bool{true, false, false, false} {
		tr.RecordResult(ctx, "s1", "Probability", c)
	}
	r, _ = tr.Get("s1", "Probability")
	if r.Correct != 5 || r.Total != 8 || r.Accuracy() != 0.625 {
		t.Errorf("got %d/%d acc %v, want 5/8 0.625", r.Correct, r.Total, r.Accuracy())
	}
	if r.Strength() != StrengthDeveloping {
		t.Errorf("strength = %s, want developing", r.Strength())
	}
	if r.DisplayTopic != "Probability" {
		t.Errorf("display topic = %q", r.DisplayTopic)
	}
}

func TestRecordResult_InvalidKey(t *testing.T) {
	tr := NewTracker()
	for _, tc := range [][2]string{{"", "topic"}, {"s", ""}, {"  ", "  "}} {
		if _, err := tr.RecordResult(context.Background(), tc[0], tc[1], true); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("RecordResult(%q, %q) err = %v, want ErrInvalidKey", tc[0], tc[1], err)
		}
	}
}

func TestRecordResult_OrderIndependent(t *testing.T) {
	results := []bool{true, false, true, true, false, true, false, false, true, true}
	ctx := context.Background()

	want := NewTracker()
	for _, c := range results {
		want.RecordResult(ctx, "s", "t", c)
	}
	wantRec, _ := want.Get("s", "t")

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]bool(nil), results...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		tr := NewTracker()
		for _, c := range shuffled {
			tr.RecordResult(ctx, "s", "t", c)
		}
		got, _ := tr.Get("s", "t")
		if got.Correct != wantRec.Correct || got.Total != wantRec.Total || got.Accuracy() != wantRec.Accuracy() {
			t.Errorf("shuffle %d: got %d/%d, want %d/%d", i, got.Correct, got.Total, wantRec.Correct, wantRec.Total)
		}
	}
}

func TestRecordResult_Concurrent(t *testing.T) {
	tr := NewTracker()
	ctx := context.Background()
	const workers, per = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				tr.RecordResult(ctx, "shared", "topic", i%2 == 0)
				tr.RecordResult(ctx, "own", string(rune('a'+w)), true)
			}
		}(w)
	}
	wg.Wait()

	r, _ := tr.Get("shared", "topic")
	if r.Total != workers*per || r.Correct != workers*per/2 {
		t.Errorf("shared = %d/%d, want %d/%d", r.Correct, r.Total, workers*per/2, workers*per)
	}
	if got := len(tr.Records("own")); got != workers {
		t.Errorf("own topics = %d, want %d", got, workers)
	}
}

func TestRecordResult_PersistFailureLeavesCounter(t *testing.T) {
	repo := newMemRepo()
	tr := NewTracker(WithRepo(repo))
	ctx := context.Background()

	if _, err := tr.RecordResult(ctx, "s", "t", true); err != nil {
		t.Fatal(err)
	}
	repo.err = errors.New("locked")
	if _, err := tr.RecordResult(ctx, "s", "t", true); err == nil {
		t.Fatal("expected persist error")
	}
	r, _ := tr.Get("s", "t")
	if r.Total != 1 {
		t.Errorf("total = %d, want 1 after failed persist", r.Total)
	}
	if saved := repo.saved[key{"s", "t"}]; saved.Total != 1 {
		t.Errorf("persisted total = %d, want 1", saved.Total)
	}
}

func TestResetAndLoad(t *testing.T) {
	repo := newMemRepo()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := NewTracker(WithRepo(repo), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	tr.RecordResult(ctx, "s", "a", true)
	tr.RecordResult(ctx, "other", "a", true)
	if r, _ := tr.Get("s", "a"); !r.UpdatedAt.Equal(fixed) {
		t.Errorf("UpdatedAt = %v", r.UpdatedAt)
	}

	if err := tr.Reset(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.Get("s", "a"); ok {
		t.Error("record survived reset")
	}
	if _, ok := tr.Get("other", "a"); !ok {
		t.Error("reset removed another student's record")
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "s" {
		t.Errorf("deleted = %v", repo.deleted)
	}

	tr.Load([]Record{{StudentID: "s", Topic: "Bayes Theorem", Correct: 1, Total: 4}})
	r, ok := tr.Get("s", "bayes theorem")
	if !ok || r.Strength() != StrengthWeak || r.DisplayTopic != "bayes theorem" {
		t.Errorf("loaded record = %+v ok=%v", r, ok)
	}
}

func TestRecordResults_AppliesBatchOnce(t *testing.T) {
	repo := newMemRepo()
	tr := NewTracker(WithRepo(repo))
	ctx := context.Background()

	r, err := tr.RecordResults(ctx, "s", "Bayes", 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if r.Correct != 3 || r.Total != 4 {
		t.Errorf("record = %d/%d, want 3/4", r.Correct, r.Total)
	}
	if saved := repo.saved[key{"s", "bayes"}]; saved.Total != 4 {
		t.Errorf("persisted total = %d, want 4", saved.Total)
	}

	repo.err = errors.New("disk full")
	if _, err := tr.RecordResults(ctx, "s", "Bayes", 2, 4); err == nil {
		t.Fatal("expected persist error")
	}
	if r, _ := tr.Get("s", "bayes"); r.Correct != 3 || r.Total != 4 {
		t.Errorf("after failed batch = %d/%d, want 3/4", r.Correct, r.Total)
	}

	if _, err := tr.RecordResults(ctx, "s", "Bayes", 5, 4); err == nil {
		t.Error("expected error for correct > total")
	}
}

func TestReset_WaitsForInFlightSave(t *testing.T) {
	repo := newMemRepo()
	tr := NewTracker(WithRepo(repo))
	ctx := context.Background()

	if _, err := tr.RecordResult(ctx, "s", "t", true); err != nil {
		t.Fatal(err)
	}

	repo.entered = make(chan struct{})
	repo.release = make(chan struct{})

	saveDone := make(chan error, 1)
	go func() {
		_, err := tr.RecordResult(ctx, "s", "t", false)
		saveDone <- err
	}()
	<-repo.entered

	resetDone := make(chan error, 1)
	go func() { resetDone <- tr.Reset(ctx, "s") }()

	select {
	case <-resetDone:
		t.Fatal("reset finished while a save was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	repo.entered = nil
	close(repo.release)
	if err := <-saveDone; err != nil {
		t.Fatal(err)
	}
	if err := <-resetDone; err != nil {
		t.Fatal(err)
	}

	if _, ok := tr.Get("s", "t"); ok {
		t.Error("record survived reset in memory")
	}
	repo.mu.Lock()
	rows := len(repo.saved)
	repo.mu.Unlock()
	if rows != 0 {
		t.Errorf("persisted rows after reset = %d, want 0", rows)
	}
}

func TestRecordResult_AfterResetStartsFresh(t *testing.T) {
	tr := NewTracker()
	ctx := context.Background()

	stale := tr.lookup(key{"s", "t"}, "t", true)
	if err := tr.Reset(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if !stale.dead {
		t.Fatal("expected removed entry to be marked dead")
	}

	r, err := tr.RecordResult(ctx, "s", "t", true)
	if err != nil {
		t.Fatal(err)
	}
	if r.Total != 1 {
		t.Errorf("total = %d, want 1", r.Total)
	}
	if stale.rec.Total != 0 {
		t.Error("update landed on the removed entry")
	}
}
