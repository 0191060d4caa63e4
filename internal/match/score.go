package match

import "github.com/matchannot/matchannot/internal/annot"

// Concordance scores. Higher is strictly better. There is no separate
// grade for "no overlap at all": such transcripts stay at ScoreNone along
// with weak partial matches.
const (
	ScoreNone     = 0 // not matchable, or no exon overlap
	ScoreOverlap  = 1 // matchable, at least one exon-to-exon overlap
	ScoreBestHit  = 2 // promoted: most overlapping exon pairs among the 1s
	ScoreFull     = 3 // full one-to-one exon correspondence
	ScoreInternal = 4 // all internal exon boundaries agree exactly
	ScoreBest     = 5 // promoted: smallest truncation distance among the 4s
)

// strandRetryScore is the threshold below which the opposite strand is
// also searched: upstream aligners occasionally flip long reads, so a read
// whose best aligned-strand score is ScoreOverlap or worse gets a second
// chance on the other strand.
const strandRetryScore = ScoreOverlap

// TranscriptMatch is the per-transcript outcome of scoring one read
// against one gene.
type TranscriptMatch struct {
	Transcript *annot.Annotation
	Score      int
	Overlaps   string // read-side overlap index-list, for the report
}

// MatchTranscripts compares a read's exons to the exons of every
// transcript of a gene and classifies each transcript with a concordance
// score. Scoring is two-pass: the first pass grades every transcript in
// {0,1,3,4}, the second applies the per-gene promotions (the unique best
// 4 becomes a 5 by smallest truncation distance, otherwise the unique best
// 1 becomes a 2 by most overlapping exon pairs). Promotion needs the
// global view, which is why it cannot fold into the first pass.
//
// Returns the best transcript, its final score, and the per-transcript
// outcomes in transcript order. Ties go to the lowest transcript index.
func MatchTranscripts[E Interval](readExons []E, gene *annot.Annotation) (*annot.Annotation, int, []TranscriptMatch) {
	numTrans := gene.NumChildren()
	if numTrans == 0 || len(readExons) == 0 {
		return nil, ScoreNone, nil
	}

	details := make([]TranscriptMatch, numTrans)
	scores := make([]int, numTrans)

	bestScore := NewBest[int]()    // payload: transcript index
	bestTrunc := NewMinBest[int]() // among score-4 transcripts
	bestHits := NewBest[int]()     // among score-1 transcripts

	for ix, tran := range gene.Children() {
		tranExons := tran.Children()

		overR, overT := FindOverlaps(readExons, tranExons)
		details[ix] = TranscriptMatch{Transcript: tran, Overlaps: OverlapString(overR)}

		score := ScoreNone
		if canMatch(overR) {
			numHits := 0
			for _, group := range overR {
				if len(group) == 1 {
					numHits++
				}
			}
			bestHits.Update(numHits, ix) // kept for possible 1->2 promotion

			score = ScoreOverlap
			if isMatch(overR, overT) {
				score = ScoreFull
				if internalMatch(readExons, tranExons) {
					score = ScoreInternal // may get promoted later

					// Leading and trailing exon truncation amount.
					rs, _ := readExons[0].Span()
					_, re := readExons[len(readExons)-1].Span()
					trunc := abs64(rs-tranExons[0].Start) + abs64(re-tranExons[len(tranExons)-1].End)
					bestTrunc.Update(int(trunc), ix)
				}
			}
		}

		scores[ix] = score
		bestScore.Update(score, ix)
	}

	// Promotions are mutually exclusive: a gene whose best is a 4 gets
	// exactly one 5, a gene whose best is a 1 gets exactly one 2.
	switch bestScore.Value() {
	case ScoreInternal:
		scores[bestTrunc.Which()] = ScoreBest
		bestScore.Update(ScoreBest, bestTrunc.Which())
	case ScoreOverlap:
		scores[bestHits.Which()] = ScoreBestHit
		bestScore.Update(ScoreBestHit, bestHits.Which())
	}

	for ix := range details {
		details[ix].Score = scores[ix]
	}

	bestIx := bestScore.Which()
	return gene.At(bestIx), scores[bestIx], details
}

// canMatch reports whether an overlap list can be meaningfully matched:
// no read exon may hit more than one transcript exon, and hit indices must
// be strictly increasing (a match cannot crisscross or collapse exons).
// At least one overlap is required.
func canMatch(over [][]int) bool {
	last := -1
	hit := false

	for _, group := range over {
		if len(group) > 1 { // can't do [3,4]
			return false
		}
		if len(group) == 1 {
			if group[0] <= last { // can't do [4] [4]
				return false
			}
			last = group[0]
			hit = true
		}
	}

	return hit
}

// isMatch reports whether the overlap lists describe a full one-to-one
// pairing: same length, every entry matched to the entry at its own index.
func isMatch(over1, over2 [][]int) bool {
	if len(over1) != len(over2) {
		return false
	}
	for ix := range over1 {
		if len(over1[ix]) != 1 || over1[ix][0] != ix {
			return false
		}
	}
	return true
}

// internalMatch reports whether two one-to-one matched exon lists agree on
// every boundary except the first exon's start and the last exon's end.
// The exempt outer boundaries absorb 5'/3' variability (alternate
// transcription starts, polyadenylation at unannotated sites); internal
// splice sites must agree exactly.
func internalMatch[E Interval](list1 []E, list2 []*annot.Annotation) bool {
	for ix := 1; ix < len(list1); ix++ { // check starts, skip exon 0
		s1, _ := list1[ix].Span()
		if s1 != list2[ix].Start {
			return false
		}
	}
	for ix := 0; ix < len(list1)-1; ix++ { // check ends, skip last exon
		_, e1 := list1[ix].Span()
		if e1 != list2[ix].End {
			return false
		}
	}
	return true
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
