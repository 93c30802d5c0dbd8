package workflow

import (
	"testing"

	"github.com/poiesic/lexgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := NewState()
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, StatusRunning, s.Status)
	assert.NotNil(t, s.Intermediate)
	assert.Nil(t, s.Err)

	assert.NotEqual(t, s.RunID, NewState().RunID)
}

func TestStateFailAndWarn(t *testing.T) {
	t.Run("fail sets status and error", func(t *testing.T) {
		s := NewState()
		s.Fail(core.ErrorInfo{Kind: core.ErrorExternalService, Message: "down"})

		assert.Equal(t, StatusFailed, s.Status)
		require.NotNil(t, s.Err)
		assert.Equal(t, core.ErrorExternalService, s.Err.Kind)
	})

	t.Run("warn keeps the run going", func(t *testing.T) {
		s := NewState()
		s.Warn(core.ErrorInfo{Kind: core.ErrorPartial, Message: "one source down"})

		assert.Equal(t, StatusRunning, s.Status)
		require.NotNil(t, s.Err)
		assert.Equal(t, core.ErrorPartial, s.Err.Kind)
	})

	t.Run("warn never overwrites a fatal error", func(t *testing.T) {
		s := NewState()
		s.Fail(core.ErrorInfo{Kind: core.ErrorExternalService, Message: "fatal"})
		s.Warn(core.ErrorInfo{Kind: core.ErrorParse, Message: "advisory"})

		assert.Equal(t, StatusFailed, s.Status)
		assert.Equal(t, "fatal", s.Err.Message)
	})
}

func TestBranchAndMerge(t *testing.T) {
	t.Run("branch snapshots intermediate and isolates writes", func(t *testing.T) {
		s := NewState()
		s.Intermediate["shared"] = "before"

		b := s.branch()
		assert.Equal(t, "before", b.Intermediate["shared"])

		b.Intermediate["own"] = 1
		_, leaked := s.Intermediate["own"]
		assert.False(t, leaked)
	})

	t.Run("merge copies branch intermediate", func(t *testing.T) {
		s := NewState()
		b := s.branch()
		b.Intermediate["result"] = 42

		s.merge(b)
		assert.Equal(t, 42, s.Intermediate["result"])
		assert.Equal(t, StatusRunning, s.Status)
	})

	t.Run("first fatal branch wins", func(t *testing.T) {
		s := NewState()

		b1 := s.branch()
		b1.Fail(core.ErrorInfo{Kind: core.ErrorExternalService, Message: "first"})
		b2 := s.branch()
		b2.Fail(core.ErrorInfo{Kind: core.ErrorExternalService, Message: "second"})

		s.merge(b1)
		s.merge(b2)

		assert.Equal(t, StatusFailed, s.Status)
		assert.Equal(t, "first", s.Err.Message)
	})

	t.Run("advisory branch error kept when none set", func(t *testing.T) {
		s := NewState()

		b := s.branch()
		b.Warn(core.ErrorInfo{Kind: core.ErrorParse, Message: "loose parse"})

		s.merge(b)
		assert.Equal(t, StatusRunning, s.Status)
		require.NotNil(t, s.Err)
		assert.Equal(t, core.ErrorParse, s.Err.Kind)
	})
}
