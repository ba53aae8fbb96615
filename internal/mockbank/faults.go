package mockbank

import (
	"net/http"
	"sync"
)

const (
	faultBeforeCommit = "before_commit"
	faultAfterCommit  = "after_commit"
)

// Faults injects failures into POST /transfers. It is safe for concurrent
// use and consumed one submission at a time.
type Faults struct {
	mu          sync.Mutex
	before      []int
	afterCommit int
}

// FailNext answers the next n transfer submissions with status before
// anything is committed.
func (f *Faults) FailNext(status, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for range n {
		f.before = append(f.before, status)
	}
}

// FailAfterCommit commits the next n transfer submissions and then answers
// 502, so the client never sees the confirmation.
func (f *Faults) FailAfterCommit(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterCommit += n
}

// Reset drops every pending fault.
func (f *Faults) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before = nil
	f.afterCommit = 0
}

func (f *Faults) takeBefore() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.before) == 0 {
		return 0, false
	}
	status := f.before[0]
	f.before = f.before[1:]
	return status, true
}

func (f *Faults) takeAfterCommit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.afterCommit == 0 {
		return false
	}
	f.afterCommit--
	return true
}

func writeFault(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"injected_fault","error_description":"` + http.StatusText(status) + `"}`))
}
