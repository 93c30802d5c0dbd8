package retrieval

import (
	"testing"

	"github.com/poiesic/lexgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse(t *testing.T) {
	t.Run("documents in both sources get mean score and hybrid mark", func(t *testing.T) {
		structured := []core.RetrievalRecord{
			{Id: "A", RawScore: 1.0, Source: core.SourceStructured},
		}
		vector := []core.RetrievalRecord{
			{Id: "A", RawScore: 0.8, Source: core.SourceVector},
			{Id: "B", RawScore: 0.6, Source: core.SourceVector},
		}

		fused := Fuse(structured, vector, 10)
		require.Len(t, fused, 2)

		assert.Equal(t, "A", fused[0].Id)
		assert.InDelta(t, 0.9, fused[0].FusedScore, 1e-9)
		assert.Equal(t, core.SourceHybrid, fused[0].Source)

		assert.Equal(t, "B", fused[1].Id)
		assert.InDelta(t, 0.6, fused[1].FusedScore, 1e-9)
		assert.Equal(t, core.SourceVector, fused[1].Source)
	})

	t.Run("single-source documents keep their raw score", func(t *testing.T) {
		fused := Fuse(
			[]core.RetrievalRecord{{Id: "X", RawScore: 0.7, Source: core.SourceStructured}},
			nil, 10)
		require.Len(t, fused, 1)
		assert.Equal(t, 0.7, fused[0].FusedScore)
		assert.Equal(t, core.SourceStructured, fused[0].Source)
	})

	t.Run("equal scores break ties by ascending id", func(t *testing.T) {
		structured := []core.RetrievalRecord{
			{Id: "c", RawScore: 0.5, Source: core.SourceStructured},
			{Id: "a", RawScore: 0.5, Source: core.SourceStructured},
			{Id: "b", RawScore: 0.5, Source: core.SourceStructured},
		}

		fused := Fuse(structured, nil, 10)
		require.Len(t, fused, 3)
		assert.Equal(t, "a", fused[0].Id)
		assert.Equal(t, "b", fused[1].Id)
		assert.Equal(t, "c", fused[2].Id)
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		structured := []core.RetrievalRecord{
			{Id: "1", RawScore: 0.4, Source: core.SourceStructured},
			{Id: "2", RawScore: 0.9, Source: core.SourceStructured},
		}
		vector := []core.RetrievalRecord{
			{Id: "2", RawScore: 0.3, Source: core.SourceVector},
			{Id: "3", RawScore: 0.6, Source: core.SourceVector},
		}

		first := Fuse(structured, vector, 10)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, Fuse(structured, vector, 10))
		}
	})

	t.Run("truncates to limit after sorting", func(t *testing.T) {
		structured := []core.RetrievalRecord{
			{Id: "low", RawScore: 0.1, Source: core.SourceStructured},
			{Id: "high", RawScore: 0.9, Source: core.SourceStructured},
			{Id: "mid", RawScore: 0.5, Source: core.SourceStructured},
		}

		fused := Fuse(structured, nil, 2)
		require.Len(t, fused, 2)
		assert.Equal(t, "high", fused[0].Id)
		assert.Equal(t, "mid", fused[1].Id)
	})

	t.Run("empty inputs yield empty output", func(t *testing.T) {
		assert.Empty(t, Fuse(nil, nil, 10))
	})
}
