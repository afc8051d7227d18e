package session

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		databases []string
		wantIdx   int
		wantOK    bool
	}{
		{name: "empty", databases: nil, wantOK: false},
		{name: "one", databases: []string{"app"}, wantIdx: 0, wantOK: true},
		{name: "many", databases: []string{"app", "app_test"}, wantIdx: 0, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.databases)
			idx, ok := s.SelectedDatabase()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantIdx, idx)
			assert.Equal(t, DatabaseList, s.Focus())
			assert.Equal(t, ResultEmpty, s.Result().Kind)
			assert.Empty(t, s.Query())

			_, ok = s.SelectedTable()
			assert.False(t, ok, "no tables before the first fetch")
		})
	}
}

func TestSelectDatabase_Clamps(t *testing.T) {
	s := New([]string{"a", "b", "c"})

	assert.False(t, s.SelectPreviousDatabase(), "previous at top is a no-op")
	idx, _ := s.SelectedDatabase()
	assert.Equal(t, 0, idx)

	assert.True(t, s.SelectNextDatabase())
	assert.True(t, s.SelectNextDatabase())
	assert.False(t, s.SelectNextDatabase(), "next at bottom is a no-op")
	assert.False(t, s.SelectNextDatabase())

	idx, _ = s.SelectedDatabase()
	assert.Equal(t, 2, idx)
	name, ok := s.SelectedDatabaseName()
	require.True(t, ok)
	assert.Equal(t, "c", name)
}

func TestSelectDatabase_EmptyList(t *testing.T) {
	s := New(nil)
	assert.False(t, s.SelectNextDatabase())
	assert.False(t, s.SelectPreviousDatabase())
	_, ok := s.SelectedDatabaseName()
	assert.False(t, ok)
}

func TestSelectTable_RandomWalkStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New([]string{"app"})
	s.ReplaceTables([]string{"users", "orders", "items", "events"})

	for i := 0; i < 500; i++ {
		before, _ := s.SelectedTable()
		var moved bool
		if rng.Intn(2) == 0 {
			moved = s.SelectNextTable()
		} else {
			moved = s.SelectPreviousTable()
		}
		after, ok := s.SelectedTable()
		require.True(t, ok)
		require.GreaterOrEqual(t, after, 0)
		require.Less(t, after, 4)
		if moved {
			require.Equal(t, 1, abs(after-before))
		} else {
			require.Equal(t, before, after)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestReplaceTables(t *testing.T) {
	s := New([]string{"app", "app_test"})

	s.ReplaceTables([]string{"users", "orders"})
	s.SelectNextTable()
	idx, ok := s.SelectedTable()
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	s.ReplaceTables([]string{"sessions", "tokens", "keys"})
	idx, ok = s.SelectedTable()
	require.True(t, ok)
	assert.Equal(t, 0, idx, "selection resets on every replace")
	assert.Equal(t, []string{"sessions", "tokens", "keys"}, s.Tables())

	s.ReplaceTables(nil)
	_, ok = s.SelectedTable()
	assert.False(t, ok)
	assert.Empty(t, s.Tables())
	assert.False(t, s.SelectNextTable())
}

func TestReplaceTables_CopiesInput(t *testing.T) {
	s := New([]string{"app"})
	tables := []string{"users"}
	s.ReplaceTables(tables)
	tables[0] = "mutated"
	assert.Equal(t, []string{"users"}, s.Tables())
}

func TestQueryBuffer(t *testing.T) {
	s := New(nil)

	s.PopQueryChar()
	assert.Empty(t, s.Query(), "pop on empty buffer is a no-op")

	for _, r := range "SELECT 1" {
		s.PushQueryChar(r)
	}
	assert.Equal(t, "SELECT 1", s.Query())

	s.PopQueryChar()
	assert.Equal(t, "SELECT ", s.Query())
}

func TestQueryBuffer_RoundTrip(t *testing.T) {
	prefixes := []string{"", "SELECT ", "naïve", "日本", "emoji 🎉"}
	chars := []rune{'a', ' ', 'é', '語', '🎉', '\''}

	for _, prefix := range prefixes {
		for _, r := range chars {
			s := New(nil)
			s.PushQueryText(prefix)
			s.PushQueryChar(r)
			s.PopQueryChar()
			assert.Equal(t, prefix, s.Query(), "push %q then pop after %q", r, prefix)
		}
	}
}

func TestQueryBuffer_PopIsRuneAware(t *testing.T) {
	s := New(nil)
	s.PushQueryText("añ")
	s.PopQueryChar()
	assert.Equal(t, "a", s.Query())
}

func TestSetResult(t *testing.T) {
	s := New(nil)

	s.SetResult(TableResult([]string{"?column?"}, [][]string{{"1"}}, 0))
	r := s.Result()
	assert.Equal(t, ResultTable, r.Kind)
	assert.Equal(t, 1, r.ColumnCount())

	s.SetResult(ErrorResult(errors.New("timeout")))
	r = s.Result()
	assert.Equal(t, ResultError, r.Kind)
	assert.Equal(t, "Error: timeout", r.Message)
	assert.Zero(t, r.ColumnCount())
}

func TestTableResult_ZeroRows(t *testing.T) {
	r := TableResult([]string{"id", "name"}, nil, 0)
	assert.Equal(t, ResultTable, r.Kind)
	assert.NotNil(t, r.Rows)
	assert.Empty(t, r.Rows)
	assert.Equal(t, 2, r.ColumnCount())
}

func TestSetFocus(t *testing.T) {
	s := New(nil)
	panes := []Pane{QueryEditor, ResultView, TableList, DatabaseList, QueryEditor}
	for _, p := range panes {
		s.SetFocus(p)
		assert.Equal(t, p, s.Focus())
	}
}

func TestPaneString(t *testing.T) {
	assert.Equal(t, "databases", DatabaseList.String())
	assert.Equal(t, "tables", TableList.String())
	assert.Equal(t, "results", ResultView.String())
	assert.Equal(t, "query", QueryEditor.String())
	assert.Equal(t, "unknown", Pane(99).String())
}
