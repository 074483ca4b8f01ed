package schedule

import (
	"testing"
	"time"

	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkWindow(name string, rise, set time.Time) Window {
	return Window{Name: name, Rise: rise, Set: set}
}

func TestScheduleAccessors(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	t.Run("empty_schedule", func(t *testing.T) {
		s := &Schedule{}
		assert.Equal(t, 0, s.Len())
		_, ok := s.Head()
		assert.False(t, ok)
		_, ok = s.Tail()
		assert.False(t, ok)
		_, ok = s.PopHead()
		assert.False(t, ok)
	})

	t.Run("head_tail_pop", func(t *testing.T) {
		w1 := mkWindow("SAT-1", base, base.Add(10*time.Minute))
		w2 := mkWindow("SAT-2", base.Add(time.Hour), base.Add(70*time.Minute))
		s := FromWindows([]Window{w1, w2})

		require.Equal(t, 2, s.Len())
		head, ok := s.Head()
		require.True(t, ok)
		assert.Equal(t, "SAT-1", head.Name)

		tail, ok := s.Tail()
		require.True(t, ok)
		assert.Equal(t, "SAT-2", tail.Name)

		popped, ok := s.PopHead()
		require.True(t, ok)
		assert.Equal(t, "SAT-1", popped.Name)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("clear", func(t *testing.T) {
		s := FromWindows([]Window{mkWindow("SAT-1", base, base.Add(time.Minute))})
		s.Clear()
		assert.Equal(t, 0, s.Len())
	})

	t.Run("from_windows_is_a_copy", func(t *testing.T) {
		src := []Window{mkWindow("SAT-1", base, base.Add(time.Minute))}
		s := FromWindows(src)
		src[0].Name = "MUTATED"
		got, _ := s.Head()
		assert.Equal(t, "SAT-1", got.Name, "FromWindows must copy, not alias, the input slice")
	})
}

func TestBuilderAppendBoundaries(t *testing.T) {
	builder := NewBuilder(ephemeris.New(), nil)
	start := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	t.Run("start_not_before_end_returns_existing_unchanged", func(t *testing.T) {
		existing := FromWindows([]Window{mkWindow("SAT-1", start, start.Add(time.Minute))})
		out := builder.Append(existing, nil, start, start, ephemeris.Observer{})
		require.Equal(t, 1, out.Len())
		head, _ := out.Head()
		assert.Equal(t, "SAT-1", head.Name)
	})

	t.Run("no_candidates_returns_copy_of_existing", func(t *testing.T) {
		w := mkWindow("SAT-1", start, start.Add(time.Minute))
		existing := FromWindows([]Window{w})
		out := builder.Append(existing, nil, start, start.Add(24*time.Hour), ephemeris.Observer{})
		require.Equal(t, 1, out.Len())
		head, _ := out.Head()
		assert.Equal(t, w, head)

		// existing must be untouched by Append.
		existingHead, _ := existing.Head()
		assert.Equal(t, w, existingHead)
	})
}
