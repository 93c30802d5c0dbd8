package retrieval

import (
	"slices"

	"github.com/poiesic/lexgraph/core"
)

// Fuse merges structured and vector hits into one ranked list.
//
// A document found by both sources gets the mean of its two raw scores and
// the Hybrid source mark; single-source documents keep their raw score. The
// merged list is ordered by fused score descending with ascending id as the
// tiebreak, then truncated to limit. The same inputs always produce the
// same output.
func Fuse(structured, vector []core.RetrievalRecord, limit int) []core.RetrievalRecord {
	merged := make(map[string]core.RetrievalRecord, len(structured)+len(vector))

	for _, rec := range structured {
		rec.FusedScore = rec.RawScore
		merged[rec.Id] = rec
	}
	for _, rec := range vector {
		if prev, ok := merged[rec.Id]; ok {
			prev.FusedScore = (prev.RawScore + rec.RawScore) / 2
			prev.Source = core.SourceHybrid
			merged[rec.Id] = prev
			continue
		}
		rec.FusedScore = rec.RawScore
		merged[rec.Id] = rec
	}

	fused := make([]core.RetrievalRecord, 0, len(merged))
	for _, rec := range merged {
		fused = append(fused, rec)
	}

	slices.SortFunc(fused, func(a, b core.RetrievalRecord) int {
		if a.FusedScore != b.FusedScore {
			if a.FusedScore > b.FusedScore {
				return -1
			}
			return 1
		}
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
