// Package annot provides the hierarchical gene annotation index and the
// chromosome sweep cursor used to match aligned reads against it.
package annot

import "sort"

// Strand values follow the +1/-1 convention.
const (
	Forward int8 = 1
	Reverse int8 = -1
)

// ParseStrand converts a GTF/SAM strand character to int8.
func ParseStrand(s string) int8 {
	if s == "-" {
		return Reverse
	}
	return Forward
}

// StrandString converts an int8 strand back to "+" or "-".
func StrandString(strand int8) string {
	if strand == Reverse {
		return "-"
	}
	return "+"
}

// Annotation is one node of the annotation hierarchy: a chromosome, gene,
// transcript, or exon, uniformly. Children of a chromosome node are genes,
// children of a gene are transcripts, children of a transcript are exons.
// ID, Length, StartCodon and StopCodon are populated on transcripts only.
type Annotation struct {
	Name   string
	Start  int64 // 1-based
	End    int64 // 1-based, inclusive
	Strand int8

	ID         string // transcript identifier (e.g. ENST00000456328.2)
	Length     int64  // cumulative exonic length of a transcript
	StartCodon int64  // genomic position, 0 if absent
	StopCodon  int64  // genomic position, 0 if absent

	children []*Annotation
}

// NewAnnotation creates a leaf node.
func NewAnnotation(start, end int64, strand int8, name string) *Annotation {
	return &Annotation{Name: name, Start: start, End: end, Strand: strand}
}

// Span returns the node's genomic interval.
func (a *Annotation) Span() (start, end int64) {
	return a.Start, a.End
}

// UpdateStartEnd widens [Start, End] to include the given range. It never
// shrinks the interval. Used when gene and transcript bounds must be
// inferred from flat per-exon records.
func (a *Annotation) UpdateStartEnd(start, end int64) {
	if a.Start > start {
		a.Start = start
	}
	if a.End < end {
		a.End = end
	}
}

// AddChild inserts a child keeping children in ascending start order.
// Annotation files list minus-strand exons in descending position order,
// and a handful of genes appear genuinely out of sequence, so the append
// and prepend fast paths are backed by a full re-sort. True disorder is
// rare (a few hundred instances over tens of thousands of records), so the
// O(n log n) fallback stays off the hot path.
func (a *Annotation) AddChild(child *Annotation) {
	n := len(a.children)
	switch {
	case n == 0 || child.Start >= a.children[n-1].Start:
		a.children = append(a.children, child)
	case child.Start <= a.children[0].Start:
		a.children = append([]*Annotation{child}, a.children...)
	default:
		a.children = append(a.children, child)
		sort.SliceStable(a.children, func(i, j int) bool {
			return a.children[i].Start < a.children[j].Start
		})
	}
}

// Children returns the ordered child list. Callers must not mutate it.
func (a *Annotation) Children() []*Annotation {
	return a.children
}

// NumChildren returns the number of children.
func (a *Annotation) NumChildren() int {
	return len(a.children)
}

// At returns the child at position ix.
func (a *Annotation) At(ix int) *Annotation {
	return a.children[ix]
}
