package param

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclare(t *testing.T) {
	s := NewStore()

	idx, err := s.Declare(KindRange, "Red", 0, 100, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = s.Declare(KindLabel, "Info", 0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	label := s.Get(1)
	assert.Equal(t, "Info", label.DisplayValue(), "labels display their name")
	assert.False(t, label.IsGlobal())
	assert.False(t, label.Update().Pending(), "fresh records are not pending")
	assert.Nil(t, s.Get(2))
	assert.Nil(t, s.Get(-1))
}

func TestDeclareValidation(t *testing.T) {
	tests := []struct {
		name                   string
		kind                   Kind
		min, max, current, def int64
		wantErr                error
	}{
		{"default above max", KindRange, 0, 10, 0, 11, ErrRange},
		{"current below min", KindRange, 0, 10, -1, 0, ErrRange},
		{"inverted range", KindRange, 10, 0, 5, 5, ErrRange},
		{"unknown kind", Kind(99), 0, 1, 0, 0, ErrInvalidKind},
		{"valid", KindToggle, 0, 1, 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore().Declare(tt.kind, tt.name, tt.min, tt.max, tt.current, tt.def)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDeclareCapacity(t *testing.T) {
	s := NewStoreWithCapacity(3)
	for i := 0; i < 3; i++ {
		_, err := s.Declare(KindRange, fmt.Sprintf("p%d", i), 0, 1, 0, 0)
		require.NoError(t, err)
	}

	idx, err := s.Declare(KindRange, "overflow", 0, 1, 0, 0)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 3, s.Len(), "a failed declare must not truncate or grow the table")

	full := NewStore()
	for i := 0; i < MaxRecords; i++ {
		_, err := full.Declare(KindBlank, "", 0, 0, 0, 0)
		require.NoError(t, err)
	}
	_, err = full.Declare(KindBlank, "", 0, 0, 0, 0)
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestApplyDefaults(t *testing.T) {
	s := NewStore()
	_, _ = s.Declare(KindRange, "Red", 0, 100, 40, 10)
	_, _ = s.Declare(KindBender, "Zoom", -100, 100, 0, 0)
	s.Get(1).HostNudge(60)

	s.ApplyDefaults()

	red, zoom := s.Get(0), s.Get(1)
	assert.Equal(t, int64(10), red.Current())
	assert.True(t, red.Update().Pending())
	assert.False(t, red.Reset().Pending(), "only benders get a reset request")

	assert.Equal(t, int64(0), zoom.Current())
	assert.Equal(t, int64(0), zoom.Delta())
	assert.True(t, zoom.Update().Pending())
	assert.True(t, zoom.Reset().Pending())
}

func TestApplyRandom(t *testing.T) {
	s := NewStore()
	_, _ = s.Declare(KindRange, "A", 0, 100, 0, 0)
	_, _ = s.Declare(KindRange, "B", 0, 100, 0, 0)
	_, _ = s.Declare(KindRange, "C", 0, 100, 0, 0)

	changed := s.ApplyRandom(func(i int, r *Record) (int64, bool) {
		if i == 1 {
			return 0, false
		}
		return 500, true
	})

	assert.Equal(t, 2, changed)
	assert.Equal(t, int64(100), s.Get(0).Current(), "random values are clamped")
	assert.True(t, s.Get(0).Update().Pending())
	assert.False(t, s.Get(1).Update().Pending(), "untouched records stay quiet")
	assert.Equal(t, []int{0, 2}, s.Pending())

	assert.Equal(t, 0, s.ApplyRandom(nil))
}

func TestFlagOwnership(t *testing.T) {
	s := NewStore()
	_, _ = s.Declare(KindRange, "Red", 0, 100, 0, 0)
	r := s.Get(0)

	r.HostSetValue(250)
	assert.Equal(t, int64(100), r.Current())
	assert.True(t, r.Update().Pending())

	r.Update().Consume(false)
	assert.False(t, r.Update().Pending())

	r.HostSetValue(5)
	r.Update().Consume(true)
	assert.True(t, r.Update().Pending(), "echo keeps the flag for the host")
	s.Settle()
	assert.False(t, r.Update().Pending())

	r.SetDisplayValue("5%")
	assert.True(t, r.DisplayChanged().Raised())
	assert.Equal(t, []int{0}, s.TakeDisplayChanges())
	assert.False(t, r.DisplayChanged().Raised())
	assert.Empty(t, s.TakeDisplayChanges())
}

func TestHostRequestReset(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(BenderParameter("Zoom").Build())
	r := s.Get(0)
	r.HostNudge(500)
	assert.Equal(t, int64(BenderSpan), r.Delta())
	r.Update().Consume(false)

	r.HostRequestReset()
	assert.True(t, r.Reset().Pending())
	assert.True(t, r.Update().Pending())
	assert.Equal(t, int64(0), r.Delta())
}

func TestSuppressAndMarkAllPending(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(PercentParameter("Red", 0).Build())
	_, _ = s.Add(TriggerParameter("Flash").Build())

	s.MarkAllPending()
	s.Suppress(1, 7)

	assert.Equal(t, []int{0}, s.Pending())
}

func TestClone(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(SelectorParameter("Mode", 1, "a", "b", "c").Build())
	c := s.Clone()

	s.Get(0).HostSetValue(2)
	_ = s.SetOptions(0, "x")

	assert.Equal(t, int64(1), c.Get(0).Current())
	assert.Equal(t, []string{"a", "b", "c"}, c.Get(0).Options())
	assert.ErrorIs(t, s.SetOptions(3, "y"), ErrIndex)
}

func TestBuilders(t *testing.T) {
	s := NewStore()

	idx, err := s.Add(MultiStateParameter("Dir", 1, "Forward", "Backward", "Both").Build())
	require.NoError(t, err)
	dir := s.Get(idx)
	assert.Equal(t, KindMultiState, dir.Kind())
	assert.Equal(t, int64(2), dir.Max())
	assert.Equal(t, "Backward", dir.DisplayValue())

	idx, err = s.Add(BeatParameter("Beat", 3).Build())
	require.NoError(t, err)
	assert.Equal(t, "On 1/2", s.Get(idx).DisplayValue())

	idx, err = s.Add(SelectorParameter("Mode", 0, "One", "Two").Build())
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, s.Get(idx).Options())

	_, err = s.Add(ColumnBreak().Build())
	require.NoError(t, err)

	rec, i := s.ByName("Beat")
	require.NotNil(t, rec)
	assert.Equal(t, 1, i)
	_, i = s.ByName("missing")
	assert.Equal(t, -1, i)
}

func TestNormalized(t *testing.T) {
	s := NewStore()
	_, _ = s.Declare(KindRange, "Red", 0, 100, 0, 0)
	r := s.Get(0)
	r.HostSetValue(42)
	assert.InDelta(t, 0.42, r.Normalized(), 1e-9)

	_, _ = s.Declare(KindLabel, "L", 0, 0, 0, 0)
	assert.Equal(t, 0.0, s.Get(1).Normalized())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "bender", KindBender.String())
	assert.Equal(t, "unknown", Kind(42).String())
	assert.False(t, KindColorPicker.Supported())
	assert.False(t, KindJoystick.Supported())
	assert.True(t, KindBeatPicker.Supported())
	assert.False(t, KindLabel.HasValue())
}
