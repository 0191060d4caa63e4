// Package report renders the line-oriented match report: one block per
// read (isoform:, cigar:, polyA:, gene:, tr:, exon:, result: lines)
// followed by a run summary.
package report

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/matchannot/matchannot/internal/align"
	"github.com/matchannot/matchannot/internal/annot"
	"github.com/matchannot/matchannot/internal/cluster"
	"github.com/matchannot/matchannot/internal/match"
	"github.com/matchannot/matchannot/internal/polya"
)

// readsPerLine is the number of cluster member reads printed per cl: line.
const readsPerLine = 6

// isoform name formats vary, but cNNN should be in there somewhere
var regexClusterID = regexp.MustCompile(`(c\d+)`)

// Writer renders report blocks to an output stream.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a report writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Unaligned renders the block for a record that found no alignment.
func (w *Writer) Unaligned(rec *align.Record) {
	fmt.Fprintf(w.w, "\nisoform:\t%s\n", rec.Name)
	fmt.Fprintf(w.w, "result:\t%s\tno_alignment_found\n", rec.Name)
	if rec.MismatchReason != "" {
		fmt.Fprintf(w.w, "%s\n", rec.MismatchReason)
	}
	if rec.AlignScore != "" {
		fmt.Fprintf(w.w, "%s\n", rec.AlignScore)
	}
}

// Isoform renders the isoform: header for an aligned record.
func (w *Writer) Isoform(rec *align.Record) {
	fmt.Fprintf(w.w, "\nisoform:\t%s\t%d\t%d\t%s\t%s\t%d\n",
		rec.Name, rec.Start, rec.End, rec.Chrom,
		annot.StrandString(rec.Strand), rec.End-rec.Start)
	if rec.Secondary() {
		fmt.Fprintf(w.w, "multimap:\n")
	}
}

// Cigar renders the cigar: and MD: lines.
func (w *Writer) Cigar(rec *align.Record) {
	fmt.Fprintf(w.w, "cigar:\t%s\n", rec.Cigar.String())
	if rec.MD != "" {
		fmt.Fprintf(w.w, "MD:\t%s\n", rec.MD)
	}
}

// Variants renders var: lines recovered from the MD tag.
func (w *Writer) Variants(rec *align.Record) error {
	vars, err := align.VariantsFromMD(rec.Exons, rec.MD)
	if err != nil {
		return err
	}
	for _, v := range vars {
		switch v.Kind {
		case 's':
			fmt.Fprintf(w.w, "var:\tsub\t%d\t%s\n", v.Pos, v.Ref)
		case 'd':
			fmt.Fprintf(w.w, "var:\tdel\t%d\t%s\n", v.Pos, v.Ref)
		}
	}
	return nil
}

// ClusterReads renders cl: lines listing the reads of the record's
// cluster, full-length and non-full-length classes separately.
func (w *Writer) ClusterReads(list *cluster.List, isoformName string) {
	m := regexClusterID.FindStringSubmatch(isoformName)
	if m == nil {
		return
	}
	for _, group := range list.Reads(m[1]) {
		flag := "cl-nfl:"
		if group.FL == "FL" {
			flag = "cl-FL:"
		}
		for ix := 0; ix < len(group.Reads); ix += readsPerLine {
			hi := ix + readsPerLine
			if hi > len(group.Reads) {
				hi = len(group.Reads)
			}
			fmt.Fprintf(w.w, "%s %d ", flag, group.Cell)
			for j, read := range group.Reads[ix:hi] {
				if j > 0 {
					fmt.Fprint(w.w, "  ")
				}
				fmt.Fprint(w.w, read)
			}
			fmt.Fprintln(w.w)
		}
	}
}

// PolyA renders the polyA: line and any motif hits.
func (w *Writer) PolyA(hits []polya.Hit) {
	fmt.Fprintf(w.w, "polyA:\n")
	for _, hit := range hits {
		fmt.Fprintf(w.w, " %s: %d\n", hit.Motif, hit.Offset)
	}
}

// GeneHit renders the gene: line and the per-transcript tr: blocks for
// one candidate gene.
func (w *Writer) GeneHit(rec *align.Record, hit match.GeneHit) error {
	gene := hit.Gene
	fmt.Fprintf(w.w, "gene:\t%s\t%d\t%d\t%d\t%d\t%s\n",
		gene.Name, gene.Start, gene.Start-rec.Start, gene.End, gene.End-rec.End,
		annot.StrandString(gene.Strand))
	if hit.OppositeStrand {
		fmt.Fprintf(w.w, "  rev\n")
	}

	for _, tm := range hit.Transcripts {
		tran := tm.Transcript
		fmt.Fprintf(w.w, "tr:\t%s\tsc: %d\tex: %d\tlen: %d\tid: %s\t%s\n",
			tran.Name, tm.Score, tran.NumChildren(), tran.Length, tran.ID, tm.Overlaps)
		if tm.Score >= match.ScoreBestHit {
			if err := w.writeCoords(rec.Exons, tran); err != nil {
				return err
			}
		}
	}

	// A gene with no transcripts at all still gets the read exons shown.
	if len(hit.Transcripts) == 0 {
		fmt.Fprintf(w.w, "tr:\t(none)\n")
		for ixR, exonR := range rec.Exons {
			w.readExon(ixR, exonR)
		}
	}

	return nil
}

// Result renders the result: line for a read.
func (w *Writer) Result(rec *align.Record, m match.ReadMatch) {
	if m.Best == nil {
		fmt.Fprintf(w.w, "result:\t%s\tno_genes_found\n", rec.Name)
		return
	}

	best := m.Best
	fmt.Fprintf(w.w, "result:\t%s\t%s\t%s\tex: %d\tsc: %d",
		rec.Name, best.Gene.Name, best.BestTranscript.Name, len(rec.Exons), best.Score)
	if best.OppositeStrand {
		fmt.Fprint(w.w, "\trev")
	}
	if best.Score >= match.ScoreFull {
		tranExons := best.BestTranscript.Children()
		delta5 := tranExons[0].Start - rec.Exons[0].Start
		delta3 := tranExons[len(tranExons)-1].End - rec.Exons[len(rec.Exons)-1].End
		fmt.Fprintf(w.w, "\t5-3: %d %d", delta5, delta3)
	}
	fmt.Fprintln(w.w)
}

// Summary renders the run summary from the statistics accumulator.
func (w *Writer) Summary(version string, stats match.Stats, cells []cluster.Cell) {
	fmt.Fprintf(w.w, "\nsummary: version %s\n\n", version)

	for _, cell := range cells {
		fmt.Fprintf(w.w, "summary:   cell %d = %s\n", cell.No, cell.Name)
	}
	if len(cells) > 0 {
		fmt.Fprintln(w.w)
	}

	fmt.Fprintf(w.w, "summary: %d isoforms read\n", stats.Reads)
	fmt.Fprintf(w.w, "summary: %d isoforms aligned, of which %d were multiply mapped\n",
		stats.Aligned, stats.Multimapped)
	fmt.Fprintf(w.w, "summary: %d isoforms hit at least one gene, of which %d were on opposite strand\n",
		stats.WithGene, stats.Reverse)

	for score := 5; score >= 0; score-- {
		fmt.Fprintf(w.w, "summary: %d isoforms scored %d, of which %d had a poly-A motif\n",
			stats.ByScore[score], score, stats.PolyAByScore[score])
	}
}

// writeCoords walks two matched exon lists in parallel and prints each
// exon pair (or unmatched straggler) with its coordinates. Only called
// for transcripts already known to match; an overlap state the walk
// cannot classify violates the matcher's adjacency invariant.
func (w *Writer) writeCoords(readExons []align.Exon, tran *annot.Annotation) error {
	tranExons := tran.Children()

	// Already computed during scoring, but cheaper to recompute than to
	// carry through.
	overR, overT := match.FindOverlaps(readExons, tranExons)

	ixR := 0
	ixT := 0

	for ixR < len(overR) && ixT < len(overT) {
		switch {
		case len(overR[ixR]) == 0 && len(overT[ixT]) == 0:
			// neither matches the other: whichever comes first
			if readExons[ixR].Start < tranExons[ixT].Start {
				w.readExon(ixR, readExons[ixR])
				ixR++
			} else {
				w.tranExon(ixT, tranExons[ixT])
				w.startStop(tran, tranExons[ixT])
				ixT++
			}

		case len(overR[ixR]) == 0: // read exon with no transcript match
			w.readExon(ixR, readExons[ixR])
			ixR++

		case len(overT[ixT]) == 0: // transcript exon with no read match
			w.tranExon(ixT, tranExons[ixT])
			w.startStop(tran, tranExons[ixT])
			ixT++

		case overR[ixR][0] == ixT && overT[ixT][0] == ixR: // matching pair
			w.matchingExons(ixR, ixT, readExons[ixR], tranExons[ixT])
			w.startStop(tran, tranExons[ixT])
			ixR++
			ixT++

		default:
			return fmt.Errorf("%w: %s <-> %s", match.ErrImproperOverlap,
				match.OverlapString(overR), match.OverlapString(overT))
		}
	}

	for ; ixR < len(overR); ixR++ { // stragglers
		w.readExon(ixR, readExons[ixR])
	}
	for ; ixT < len(overT); ixT++ {
		w.tranExon(ixT, tranExons[ixT])
		w.startStop(tran, tranExons[ixT])
	}

	return nil
}

func (w *Writer) matchingExons(ixR, ixT int, exonR align.Exon, exonT *annot.Annotation) {
	fmt.Fprintf(w.w, "exon:\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\tlen: %d\t%d\tins: %d\tdel: %d",
		ixR+1, ixT+1, exonR.Start, exonT.Start, exonT.Start-exonR.Start,
		exonR.End, exonT.End, exonT.End-exonR.End,
		exonR.Len(), exonT.End-exonT.Start+1, exonR.Inserts, exonR.Deletes)
	if exonR.Substs >= 0 {
		fmt.Fprintf(w.w, "\tsub: %d\tQ: %.1f", exonR.Substs, exonR.QScore())
	}
	fmt.Fprintln(w.w)
}

// readExon prints a read exon which has no matching transcript exon.
func (w *Writer) readExon(ixR int, exonR align.Exon) {
	fmt.Fprintf(w.w, "exon:\t%d\t.\t%d\t.\t.\t%d\t.\t.\tlen: %d\t.\tins: %d\tdel: %d",
		ixR+1, exonR.Start, exonR.End, exonR.Len(), exonR.Inserts, exonR.Deletes)
	if exonR.Substs >= 0 {
		fmt.Fprintf(w.w, "\tsub: %d\tQ: %.1f", exonR.Substs, exonR.QScore())
	}
	fmt.Fprintln(w.w)
}

// tranExon prints a transcript exon which has no matching read exon.
func (w *Writer) tranExon(ixT int, exonT *annot.Annotation) {
	fmt.Fprintf(w.w, "exon:\t.\t%d\t.\t%d\t.\t.\t%d\t.\tlen:\t.\t%d\n",
		ixT+1, exonT.Start, exonT.End, exonT.End-exonT.Start+1)
}

// startStop notes when a transcript's start or stop codon falls within
// the printed exon.
func (w *Writer) startStop(tran, exonT *annot.Annotation) {
	if tran.StartCodon != 0 && exonT.Start <= tran.StartCodon && exonT.End >= tran.StartCodon {
		fmt.Fprintf(w.w, "start:\t%d\n", tran.StartCodon-exonT.Start)
	}
	if tran.StopCodon != 0 && exonT.Start <= tran.StopCodon && exonT.End >= tran.StopCodon {
		fmt.Fprintf(w.w, "stop:\t%d\n", tran.StopCodon-exonT.End)
	}
}
