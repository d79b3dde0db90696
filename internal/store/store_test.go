package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "workspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sched(t *testing.T, name string, slots ...model.Slot) model.ParticipantSchedule {
	t.Helper()
	g := model.NewGrid(model.DefaultWindow)
	for _, s := range slots {
		require.NoError(t, g.Set(s))
	}
	return model.ParticipantSchedule{Name: name, Grid: g}
}

func TestAddAndSchedules(t *testing.T) {
	st := openTestStore(t)

	mon10 := model.Slot{Day: model.Monday, Hour: 10}
	fri17 := model.Slot{Day: model.Friday, Hour: 17}

	name, err := st.Add(sched(t, "Ada", mon10, fri17))
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	scheds, err := st.Schedules(model.DefaultWindow)
	require.NoError(t, err)
	require.Len(t, scheds, 1)
	assert.Equal(t, "Ada", scheds[0].Name)
	assert.True(t, scheds[0].Grid.Contains(mon10))
	assert.True(t, scheds[0].Grid.Contains(fri17))
	assert.Equal(t, 2, scheds[0].Grid.Count())
}

func TestAddDeduplicatesNames(t *testing.T) {
	st := openTestStore(t)
	mon10 := model.Slot{Day: model.Monday, Hour: 10}

	for i, want := range []string{"John", "John_1", "John_2"} {
		got, err := st.Add(sched(t, "John", mon10))
		require.NoError(t, err, "add %d", i)
		assert.Equal(t, want, got)
	}

	infos, err := st.Participants()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "John", infos[0].Name)
	assert.Equal(t, 1, infos[0].Slots)
}

func TestAddRejectsEmpty(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Add(model.ParticipantSchedule{Name: "x", Grid: model.NewGrid(model.DefaultWindow)})
	assert.Error(t, err)
}

func TestRemoveAndClear(t *testing.T) {
	st := openTestStore(t)
	mon10 := model.Slot{Day: model.Monday, Hour: 10}

	_, err := st.Add(sched(t, "Ada", mon10))
	require.NoError(t, err)
	_, err = st.Add(sched(t, "Bob", mon10))
	require.NoError(t, err)

	removed, err := st.Remove("Ada")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = st.Remove("nobody")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, st.Clear())
	infos, err := st.Participants()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestReplaceAll(t *testing.T) {
	st := openTestStore(t)
	mon10 := model.Slot{Day: model.Monday, Hour: 10}
	tue11 := model.Slot{Day: model.Tuesday, Hour: 11}

	_, err := st.Add(sched(t, "Old", mon10))
	require.NoError(t, err)

	err = st.ReplaceAll([]model.ParticipantSchedule{
		sched(t, "Ada", mon10),
		sched(t, "Ada", tue11), // duplicate name within the batch
		sched(t, "Bob", tue11),
	})
	require.NoError(t, err)

	infos, err := st.Participants()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "Ada", infos[0].Name)
	assert.Equal(t, "Ada_1", infos[1].Name)
	assert.Equal(t, "Bob", infos[2].Name)
}
