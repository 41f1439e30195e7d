package history

import (
	"sync"
	"time"

	"glean/internal/score"
	"glean/internal/utils"
)

// Entry is one evaluation of a submission.
type Entry struct {
	ID           string       `json:"id"`
	SubmissionID string       `json:"submission_id"`
	EvaluatedAt  time.Time    `json:"evaluated_at"`
	Result       score.Result `json:"result"`
}

// NotFoundError is returned when there is no history for a submission.
type NotFoundError struct {
	message string
}

// Error returns the error text.
func (e *NotFoundError) Error() string {
	return e.message
}

// NewNotFoundError creates a NotFoundError for id.
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{message: "evaluation history not found: " + id}
}

// Repository keeps the latest evaluations of each submission in a ring buffer.
// Submissions not evaluated for longer than ttl are dropped by Serve.
//
//	repo := history.NewRepository(10, 24*time.Hour)
//	go repo.Serve()
//	defer repo.Stop()
type Repository struct {
	length int
	ttl    time.Duration

	entries map[string]*utils.RingBuffer[Entry]
	updates map[string]time.Time
	mu      sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Append records e for submission id.
func (r *Repository) Append(id string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buffer, found := r.entries[id]
	if !found {
		buffer = utils.NewRingBuffer[Entry](r.length)
		r.entries[id] = buffer
	}
	r.updates[id] = time.Now()
	buffer.Push(e)
}

// Get returns the evaluations of id, oldest first.
func (r *Repository) Get(id string) ([]Entry, error) {
	r.mu.RLock()
	buffer, found := r.entries[id]
	r.mu.RUnlock()
	if !found {
		return nil, NewNotFoundError(id)
	}
	return buffer.ToSlice(), nil
}

// Latest returns the most recent evaluation of id.
func (r *Repository) Latest(id string) (Entry, error) {
	r.mu.RLock()
	buffer, found := r.entries[id]
	r.mu.RUnlock()
	if !found {
		return Entry{}, NewNotFoundError(id)
	}
	last, ok := buffer.Last()
	if !ok {
		return Entry{}, NewNotFoundError(id)
	}
	return last, nil
}

// Serve drops outdated submissions once a minute until Stop is called. It blocks.
func (r *Repository) Serve() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case now := <-ticker.C:
			r.cleanup(now)
		}
	}
}

// Stop ends Serve. It is safe to call more than once.
func (r *Repository) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}

func (r *Repository) cleanup(now time.Time) {
	var outdated []string

	r.mu.RLock()
	for id, ts := range r.updates {
		if now.Sub(ts) > r.ttl {
			outdated = append(outdated, id)
		}
	}
	r.mu.RUnlock()

	if len(outdated) == 0 {
		return
	}

	r.mu.Lock()
	for _, id := range outdated {
		delete(r.entries, id)
		delete(r.updates, id)
	}
	r.mu.Unlock()
}

// NewRepository creates a repository keeping up to length evaluations per submission
// for ttl after the last evaluation.
func NewRepository(length int, ttl time.Duration) *Repository {
	return &Repository{
		length:  length,
		ttl:     ttl,
		entries: make(map[string]*utils.RingBuffer[Entry]),
		updates: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
}
