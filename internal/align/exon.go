// Package align decodes SAM alignment records into the ordered read-exon
// lists consumed by the matching engine.
package align

import "math"

// Exon is one aligned block of a read, delimited by intron (N) operations
// in the CIGAR, with per-exon edit statistics.
type Exon struct {
	Start   int64 // 1-based genomic
	End     int64 // 1-based genomic, inclusive
	Inserts int   // inserted bases within the exon
	Deletes int   // deleted reference bases within the exon
	Substs  int   // substituted bases, -1 when no MD tag was present
}

// Span returns the exon's genomic interval.
func (e Exon) Span() (start, end int64) {
	return e.Start, e.End
}

// Len returns the exon's reference length.
func (e Exon) Len() int64 {
	return e.End - e.Start + 1
}

// QScore derives a per-exon quality figure from the edit statistics:
// -10*log10(errors / alignedLen), capped at 99.9 for an error-free exon.
// Only meaningful when Substs >= 0.
func (e Exon) QScore() float64 {
	if e.Substs < 0 {
		return 0
	}
	errors := float64(e.Inserts + e.Deletes + e.Substs)
	aligned := float64(e.Len() + int64(e.Inserts))
	if errors == 0 || aligned == 0 {
		return 99.9
	}
	q := -10 * math.Log10(errors/aligned)
	if q > 99.9 {
		q = 99.9
	}
	return q
}
