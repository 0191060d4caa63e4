package annot

import "iter"

// Cursor walks an Index in lock-step with a position-sorted read stream.
// It keeps one integer offset into the gene list per chromosome, so the
// total matching cost across all reads on a chromosome is linear in
// genes + reads rather than quadratic. Reads must arrive in non-decreasing
// position order per chromosome; an out-of-order read only costs a
// re-scan, it is never an error here.
type Cursor struct {
	index *Index
	posit map[string]int
}

// NewCursor creates a cursor over an index, positioned at the first gene
// of every chromosome.
func NewCursor(index *Index) *Cursor {
	posit := make(map[string]int, len(index.chroms))
	for chrom := range index.chroms {
		posit[chrom] = 0
	}
	return &Cursor{index: index, posit: posit}
}

// Advance moves the cursor past genes which end prior to the given start
// position. The stored offset never decreases, and repeated calls at the
// same position are idempotent. Unknown chromosomes are a no-op.
func (c *Cursor) Advance(chrom string, start int64) {
	geneList, ok := c.index.chroms[chrom]
	if !ok {
		return
	}
	numGenes := geneList.NumChildren()
	curPos := c.posit[chrom]
	for curPos < numGenes && geneList.At(curPos).End < start {
		curPos++
	}
	c.posit[chrom] = curPos
}

// Overlapping returns the genes on the given strand whose interval
// overlaps [start, end], scanning forward from the current cursor
// position. The cursor itself does not move, since the next query may
// want some of the same genes (the caller typically probes both strands
// before advancing).
//
// The scan must not stop at the first gene which ends before start.
// When gene A completely contains gene B:
//
//	        10000                                   20000
//	 gene A |-------------------------------------------|
//	 gene B      |----------------|
//	 read 1                           |-----------|
//	 read 2                                                  |-----------|
//
// the cursor sticks at gene A until read 2 arrives, yet read 1 must not
// report gene B. Genes that end too early are skipped, and the scan only
// terminates once a gene starts past end, which is safe because genes are
// in ascending start order.
func (c *Cursor) Overlapping(chrom string, start, end int64, strand int8) iter.Seq[*Annotation] {
	return func(yield func(*Annotation) bool) {
		geneList, ok := c.index.chroms[chrom]
		if !ok {
			return
		}
		numGenes := geneList.NumChildren()
		for curPos := c.posit[chrom]; curPos < numGenes; curPos++ {
			curGene := geneList.At(curPos)
			if curGene.Start > end {
				return
			}
			if curGene.Strand == strand && curGene.End > start {
				if !yield(curGene) {
					return
				}
			}
		}
	}
}
