package match

// Stats accumulates run statistics across reads. It is owned by the
// caller and threaded through the pipeline; the matching engine itself
// keeps no global state.
type Stats struct {
	Reads       int // records read
	Aligned     int // records carrying an alignment
	Multimapped int // secondary alignments
	WithGene    int // reads hitting at least one gene
	Reverse     int // best hit on the strand opposite the alignment

	ByScore      [6]int // reads by final score
	PolyAByScore [6]int // of those, reads with a poly-A motif
}

// CountMatch folds one read's match outcome into the accumulator.
func (s *Stats) CountMatch(m ReadMatch, foundPolyA bool) {
	if m.Best == nil {
		return
	}
	s.WithGene++
	if m.Best.OppositeStrand {
		s.Reverse++
	}
	s.ByScore[m.Best.Score]++
	if foundPolyA {
		s.PolyAByScore[m.Best.Score]++
	}
}
