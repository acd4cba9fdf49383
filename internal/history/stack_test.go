package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftyprep/internal/models"
)

func state(brightness int) models.AdjustmentState {
	return models.AdjustmentState{Brightness: brightness, Threshold: 128, Preset: models.PresetCustom}
}

func TestEmptyStack(t *testing.T) {
	s := New(10)

	_, ok := s.Undo()
	assert.False(t, ok)
	_, ok = s.Redo()
	assert.False(t, ok)
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, s.cursor)
}

func TestSingleEntryCannotUndo(t *testing.T) {
	s := New(10)
	s.Push(state(0))

	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	_, ok := s.Undo()
	assert.False(t, ok)
}

func TestBoundedDepth(t *testing.T) {
	s := New(10)
	for i := 1; i <= 15; i++ {
		s.Push(state(i))
	}

	require.Equal(t, 10, s.Len())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, state(15), cur)

	undos := 0
	for {
		if _, ok := s.Undo(); !ok {
			break
		}
		undos++
	}
	assert.Equal(t, 9, undos)

	oldest, _ := s.Current()
	assert.Equal(t, state(6), oldest)
}

func TestUndoRedo(t *testing.T) {
	s := New(10)
	s.Push(state(1))
	s.Push(state(2))
	s.Push(state(3))

	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, state(2), got)
	assert.True(t, s.CanRedo())

	got, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, state(3), got)

	_, ok = s.Redo()
	assert.False(t, ok)
}

func TestPushAfterUndoTruncatesRedo(t *testing.T) {
	s := New(10)
	s.Push(state(1))
	s.Push(state(2))
	s.Push(state(3))

	s.Undo()
	s.Undo()
	s.Push(state(9))

	_, ok := s.Redo()
	assert.False(t, ok)
	assert.False(t, s.CanRedo())

	want := []models.AdjustmentState{state(1), state(9)}
	if diff := cmp.Diff(want, s.entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	s := New(3)
	s.Push(state(1))
	s.Push(state(2))
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())

	s.Push(state(5))
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, state(5), cur)
}

func TestDefaultDepth(t *testing.T) {
	assert.Equal(t, DefaultDepth, New(0).depth)
}
