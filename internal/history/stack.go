// Package history implements the bounded linear undo/redo stack of
// adjustment states.
package history

import (
	"sync"

	"craftyprep/internal/models"
)

// DefaultDepth is the number of entries kept when no depth is configured.
const DefaultDepth = 10

// Stack is a bounded list of adjustment snapshots with a cursor on the
// active entry. It is safe for concurrent use.
type Stack struct {
	mu      sync.RWMutex
	entries []models.AdjustmentState
	cursor  int
	depth   int
}

// New returns an empty stack keeping at most depth entries. A depth below
// one falls back to DefaultDepth.
func New(depth int) *Stack {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Stack{
		entries: make([]models.AdjustmentState, 0, depth),
		cursor:  -1,
		depth:   depth,
	}
}

// Push discards everything after the cursor, appends state and moves the
// cursor onto it. When the stack is full the oldest entry is dropped.
func (s *Stack) Push(state models.AdjustmentState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries[:s.cursor+1], state)
	if len(s.entries) > s.depth {
		overflow := len(s.entries) - s.depth
		s.entries = append(s.entries[:0], s.entries[overflow:]...)
	}
	s.cursor = len(s.entries) - 1
}

// Undo moves the cursor back one entry and returns it. ok is false when
// there is nothing to undo.
func (s *Stack) Undo() (state models.AdjustmentState, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor <= 0 {
		return models.AdjustmentState{}, false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Redo moves the cursor forward one entry and returns it. ok is false when
// there is nothing to redo.
func (s *Stack) Redo() (state models.AdjustmentState, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.entries)-1 {
		return models.AdjustmentState{}, false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// Clear empties the stack.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.cursor = -1
}

func (s *Stack) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor > 0
}

func (s *Stack) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor < len(s.entries)-1
}

// Current returns the entry under the cursor.
func (s *Stack) Current() (models.AdjustmentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cursor < 0 {
		return models.AdjustmentState{}, false
	}
	return s.entries[s.cursor], true
}

func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
