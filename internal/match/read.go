package match

import "github.com/matchannot/matchannot/internal/annot"

// GeneHit is the outcome of matching one read against one candidate gene.
type GeneHit struct {
	Gene           *annot.Annotation
	OppositeStrand bool // gene found on the strand opposite the alignment
	BestTranscript *annot.Annotation
	Score          int
	Transcripts    []TranscriptMatch
}

// ReadMatch is the outcome of matching one read against the annotation.
// Best is nil when no overlapping gene exists on either strand; that is a
// well-defined result, not an error.
type ReadMatch struct {
	Hits []GeneHit
	Best *GeneHit
}

// MatchRead matches one read against all candidate genes. The cursor is
// advanced to the read's start, then genes overlapping [start, end] on the
// aligned strand are scored; if the best score is no better than
// strandRetryScore the opposite strand is searched as well. Across all
// candidate genes the best (gene, transcript, score) is tracked with a
// first-wins tie-break.
func MatchRead[E Interval](cursor *annot.Cursor, chrom string, start, end int64, strand int8, readExons []E) ReadMatch {
	cursor.Advance(chrom, start)

	var m ReadMatch
	bestHit := NewBest[int]() // payload: index into m.Hits

	for _, tryStrand := range [2]int8{strand, -strand} {
		for gene := range cursor.Overlapping(chrom, start, end, tryStrand) {
			bestTran, score, details := MatchTranscripts(readExons, gene)
			m.Hits = append(m.Hits, GeneHit{
				Gene:           gene,
				OppositeStrand: tryStrand != strand,
				BestTranscript: bestTran,
				Score:          score,
				Transcripts:    details,
			})
			bestHit.Update(score, len(m.Hits)-1)
		}

		if bestHit.Held() && bestHit.Value() > strandRetryScore {
			break // decent match found, don't try the other strand
		}
	}

	if bestHit.Held() {
		m.Best = &m.Hits[bestHit.Which()]
	}
	return m
}
