// Package progress tracks per-student, per-topic mastery counters and
// derives strength labels and study recommendations from them.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/tutor/internal/logger"
)

// ErrInvalidKey is returned for an empty student id or topic.
var ErrInvalidKey = errors.New("student id and topic are required")

// Record is the mastery counter for one (student, topic) pair.
type Record struct {
	StudentID    string
	Topic        string // normalized
	DisplayTopic string // as first seen
	Correct      int
	Total        int
	UpdatedAt    time.Time
}

// Accuracy is recomputed from the counters on every call.
func (r Record) Accuracy() float64 { return Accuracy(r.Correct, r.Total) }

// Strength is recomputed from the counters on every call.
func (r Record) Strength() Strength { return Classify(r.Correct, r.Total) }

// Repo persists records. Calls happen under the record's key lock.
type Repo interface {
	SaveMastery(ctx context.Context, r Record) error
	DeleteMastery(ctx context.Context, studentID string) error
}

type key struct {
	student string
	topic   string
}

// entry guards a single record. Updates to one key are serialized by mu;
// different keys never contend. A dead entry has been removed from the map
// by Reset and must be looked up again.
type entry struct {
	mu   sync.Mutex
	rec  Record
	dead bool
}

// Tracker owns the mastery model.
type Tracker struct {
	// mu guards the entries map only.
	mu      sync.RWMutex
	entries map[key]*entry

	repo Repo
	now  func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRepo persists every update through r.
func WithRepo(r Repo) Option {
	return func(t *Tracker) { t.repo = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates an empty Tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make(map[key]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func makeKey(studentID, topic string) (key, error) {
	k := key{student: strings.TrimSpace(studentID), topic: NormalizeTopic(topic)}
	if k.student == "" || k.topic == "" {
		return key{}, ErrInvalidKey
	}
	return k, nil
}

// lookup returns the entry for k, creating it when create is set.
func (t *Tracker) lookup(k key, display string, create bool) *entry {
	t.mu.RLock()
	e := t.entries[k]
	t.mu.RUnlock()
	if e != nil || !create {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e = t.entries[k]; e == nil {
		e = &entry{rec: Record{StudentID: k.student, Topic: k.topic, DisplayTopic: strings.TrimSpace(display)}}
		t.entries[k] = e
	}
	return e
}

// RecordResult adds one answer to the (student, topic) counter and returns
// the updated record. If persisting fails the counter is left unchanged.
func (t *Tracker) RecordResult(ctx context.Context, studentID, topic string, correct bool) (Record, error) {
	n := 0
	if correct {
		n = 1
	}
	return t.RecordResults(ctx, studentID, topic, n, 1)
}

// RecordResults adds total answers, correct of them right, to the
// (student, topic) counter with a single persist. Either all of them are
// applied or none are.
func (t *Tracker) RecordResults(ctx context.Context, studentID, topic string, correct, total int) (Record, error) {
	k, err := makeKey(studentID, topic)
	if err != nil {
		return Record{}, err
	}
	if total < 0 || correct < 0 || correct > total {
		return Record{}, fmt.Errorf("record %d/%d for %s/%s: invalid counts", correct, total, k.student, k.topic)
	}

	e := t.lockLive(k, topic)
	defer e.mu.Unlock()

	next := e.rec
	next.Total += total
	next.Correct += correct
	next.UpdatedAt = t.now().UTC()

	if t.repo != nil {
		if err := t.repo.SaveMastery(ctx, next); err != nil {
			return e.rec, fmt.Errorf("save mastery %s/%s: %w", k.student, k.topic, err)
		}
	}
	e.rec = next
	logger.Debug("progress: %s/%s now %d/%d (%s)", k.student, k.topic, next.Correct, next.Total, next.Strength())
	return next, nil
}

// lockLive returns the locked entry for k, retrying when Reset removed the
// entry between lookup and lock.
func (t *Tracker) lockLive(k key, display string) *entry {
	for {
		e := t.lookup(k, display, true)
		e.mu.Lock()
		if !e.dead {
			return e
		}
		e.mu.Unlock()
	}
}

// Get returns the record for (studentID, topic).
func (t *Tracker) Get(studentID, topic string) (Record, bool) {
	k, err := makeKey(studentID, topic)
	if err != nil {
		return Record{}, false
	}
	e := t.lookup(k, "", false)
	if e == nil {
		return Record{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Total == 0 {
		return Record{}, false
	}
	return e.rec, true
}

// StrengthOf returns the topic strength, or false when the student has no
// answers recorded for it.
func (t *Tracker) StrengthOf(studentID, topic string) (Strength, bool) {
	r, ok := t.Get(studentID, topic)
	if !ok {
		return "", false
	}
	return r.Strength(), true
}

// Records returns copies of every record for studentID, sorted by topic.
func (t *Tracker) Records(studentID string) []Record {
	studentID = strings.TrimSpace(studentID)

	t.mu.RLock()
	var es []*entry
	for k, e := range t.entries {
		if k.student == studentID {
			es = append(es, e)
		}
	}
	t.mu.RUnlock()

	out := make([]Record, 0, len(es))
	for _, e := range es {
		e.mu.Lock()
		r := e.rec
		e.mu.Unlock()
		if r.Total > 0 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// Reset forgets every record of studentID. The map lock blocks new entries
// and each entry lock waits out in-flight saves, so nothing for the student
// is persisted after the delete. Lock order is always map then entry.
func (t *Tracker) Reset(ctx context.Context, studentID string) error {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return ErrInvalidKey
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var keys []key
	for k, e := range t.entries {
		if k.student == studentID {
			keys = append(keys, k)
			e.mu.Lock()
		}
	}
	unlock := func() {
		for _, k := range keys {
			t.entries[k].mu.Unlock()
		}
	}

	if t.repo != nil {
		if err := t.repo.DeleteMastery(ctx, studentID); err != nil {
			unlock()
			return fmt.Errorf("reset %s: %w", studentID, err)
		}
	}

	for _, k := range keys {
		e := t.entries[k]
		e.dead = true
		delete(t.entries, k)
		e.mu.Unlock()
	}
	logger.Info("progress: reset %d topic(s) for %s", len(keys), studentID)
	return nil
}

// Load restores persisted records, replacing any in memory under the same key.
func (t *Tracker) Load(records []Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range records {
		k, err := makeKey(r.StudentID, r.Topic)
		if err != nil {
			continue
		}
		r.StudentID, r.Topic = k.student, k.topic
		if r.DisplayTopic == "" {
			r.DisplayTopic = r.Topic
		}
		t.entries[k] = &entry{rec: r}
	}
}
