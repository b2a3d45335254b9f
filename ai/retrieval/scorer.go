package retrieval

import (
	"context"
)

// Scorer computes a similarity score in [0, 1] between a query and a
// candidate string.
type Scorer interface {
	Score(ctx context.Context, query, candidate string) (float64, error)
	Name() string
}

// SequenceScorer scores by character-sequence similarity ratio:
// 2*M / (len(a)+len(b)) where M is the total length of the longest
// matching blocks. Pure and dependency-free; the default scorer when no
// embedding provider is configured.
type SequenceScorer struct{}

func (SequenceScorer) Name() string { return "sequence" }

func (SequenceScorer) Score(_ context.Context, query, candidate string) (float64, error) {
	return Ratio(query, candidate), nil
}

// Ratio returns the sequence similarity of two strings in [0, 1].
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := matchingTotal([]byte(a), []byte(b))
	return 2 * float64(matched) / float64(len(a)+len(b))
}

type block struct {
	alo, ahi, blo, bhi int
}

// matchingTotal sums the lengths of the longest matching blocks,
// found by recursively splitting around the longest common substring.
func matchingTotal(a, b []byte) int {
	b2j := make(map[byte][]int, len(b))
	for j, c := range b {
		b2j[c] = append(b2j[c], j)
	}

	total := 0
	queue := []block{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, size := longestMatch(a, b2j, cur)
		if size == 0 {
			continue
		}
		total += size
		if cur.alo < i && cur.blo < j {
			queue = append(queue, block{cur.alo, i, cur.blo, j})
		}
		if i+size < cur.ahi && j+size < cur.bhi {
			queue = append(queue, block{i + size, cur.ahi, j + size, cur.bhi})
		}
	}
	return total
}

// longestMatch finds the longest matching block of a[alo:ahi] within
// b[blo:bhi], preferring the earliest match on ties.
func longestMatch(a []byte, b2j map[byte][]int, r block) (besti, bestj, bestsize int) {
	besti, bestj = r.alo, r.blo
	j2len := make(map[int]int)
	for i := r.alo; i < r.ahi; i++ {
		next := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < r.blo {
				continue
			}
			if j >= r.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
