// Package match implements the exon-overlap matcher and the transcript
// concordance scoring engine.
package match

import (
	"errors"
	"strings"
)

// ErrImproperOverlap reports an overlap-adjacency invariant broken during
// diagnostic rendering. It is fatal to the current read's processing and
// surfaced to the caller.
var ErrImproperOverlap = errors.New("improper overlap")

// Interval is the contract shared by read exons and annotation nodes:
// a 1-based, inclusive genomic range.
type Interval interface {
	Span() (start, end int64)
}

// FindOverlaps computes the overlaps between two interval lists, both
// sorted ascending by start. The result is symmetric: over1[i] holds the
// ordered indices of list2 entries overlapping list1[i], and over2[j] the
// list1 indices overlapping list2[j].
//
// Two intervals [s1,e1] and [s2,e2] overlap iff s1 < e2 && s2 < e1. The
// stored coordinates are inclusive but the comparison is deliberately
// half-open; it decides how exact-adjacency cases fall and must not be
// "fixed".
//
// The secondary pointer only moves forward once a list2 entry has ended
// before the current list1 entry, so the sweep is O(len1 + len2) amortized
// while still reporting many-to-many overlaps.
func FindOverlaps[A, B Interval](list1 []A, list2 []B) (over1, over2 [][]int) {
	over1 = make([][]int, len(list1))
	over2 = make([][]int, len(list2))

	pos2 := 0
	for pos1 := range list1 {
		s1, e1 := list1[pos1].Span()

		for pos2 < len(list2) {
			_, e2 := list2[pos2].Span()
			if e2 >= s1 {
				break
			}
			pos2++ // done with this list2 entry
		}

		for ix := pos2; ix < len(list2); ix++ {
			s2, _ := list2[ix].Span()
			if s2 >= e1 {
				break
			}
			over1[pos1] = append(over1[pos1], ix)
			over2[ix] = append(over2[ix], pos1)
		}
	}

	return over1, over2
}

// OverlapString renders an overlap index-list for the report, e.g.
// "[1] [] [2,3]". Exons are numbered 1..N in printed output.
func OverlapString(over [][]int) string {
	fields := make([]string, len(over))
	for i, group := range over {
		nums := make([]string, len(group))
		for j, ix := range group {
			nums[j] = itoa(ix + 1)
		}
		fields[i] = "[" + strings.Join(nums, ",") + "]"
	}
	return strings.Join(fields, " ")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
