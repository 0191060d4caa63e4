// Package pipeline drives a full matching run: decode SAM records,
// match each against the annotation index, and render the report.
package pipeline

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/matchannot/matchannot/internal/align"
	"github.com/matchannot/matchannot/internal/annot"
	"github.com/matchannot/matchannot/internal/cluster"
	"github.com/matchannot/matchannot/internal/match"
	"github.com/matchannot/matchannot/internal/polya"
	"github.com/matchannot/matchannot/internal/report"
)

// Pipeline matches a position-sorted SAM stream against an annotation
// index and writes the per-read report.
type Pipeline struct {
	index  *annot.Index
	logger *zap.Logger
	finder *polya.Finder

	clusters     *cluster.List
	showVariants bool
	version      string
}

// New creates a pipeline over a built annotation index.
func New(index *annot.Index) *Pipeline {
	return &Pipeline{
		index:   index,
		logger:  zap.NewNop(),
		finder:  polya.NewFinder(),
		version: "dev",
	}
}

// SetLogger sets the logger for progress and warning messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// SetClusters supplies a cluster report; member reads of each isoform's
// cluster are then listed in the output.
func (p *Pipeline) SetClusters(list *cluster.List) {
	p.clusters = list
}

// SetShowVariants enables var: lines recovered from MD tags.
func (p *Pipeline) SetShowVariants(show bool) {
	p.showVariants = show
}

// SetPolyAReach overrides how far from the 3' end the poly-A motif scan
// looks.
func (p *Pipeline) SetPolyAReach(reach int) {
	p.finder = polya.NewFinderReach(reach)
}

// SetVersion sets the version string printed in the report summary.
func (p *Pipeline) SetVersion(version string) {
	p.version = version
}

// Run processes one SAM stream. The stream must be sorted by position
// within each chromosome; the gene cursor only moves forward, so an
// out-of-order read would silently miss genes, and is an error instead.
func (p *Pipeline) Run(in io.Reader, out io.Writer) (match.Stats, error) {
	var stats match.Stats

	reader, err := align.NewReader(in)
	if err != nil {
		return stats, err
	}

	w := report.NewWriter(out)
	cursor := annot.NewCursor(p.index)
	lastPos := make(map[string]int64)

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		stats.Reads++
		if stats.Reads%10000 == 0 {
			p.logger.Info("progress", zap.Int("reads", stats.Reads))
		}

		if !rec.Aligned() {
			w.Unaligned(rec)
			continue
		}
		stats.Aligned++
		if rec.Secondary() {
			stats.Multimapped++
		}

		if rec.Start < lastPos[rec.Chrom] {
			return stats, fmt.Errorf("input is not sorted by position: read %s at %s:%d after %d",
				rec.Name, rec.Chrom, rec.Start, lastPos[rec.Chrom])
		}
		lastPos[rec.Chrom] = rec.Start

		w.Isoform(rec)
		w.Cigar(rec)
		if p.showVariants && rec.MD != "" {
			if err := w.Variants(rec); err != nil {
				p.logger.Warn("cannot recover variants",
					zap.String("read", rec.Name), zap.Error(err))
			}
		}
		if p.clusters != nil {
			w.ClusterReads(p.clusters, rec.Name)
		}

		polyAHits := p.finder.FindMotifs(rec.Seq, rec.Strand)
		if len(polyAHits) > 0 {
			w.PolyA(polyAHits)
		}

		m := match.MatchRead(cursor, rec.Chrom, rec.Start, rec.End, rec.Strand, rec.Exons)
		for _, hit := range m.Hits {
			if err := w.GeneHit(rec, hit); err != nil {
				return stats, fmt.Errorf("read %s gene %s: %w", rec.Name, hit.Gene.Name, err)
			}
		}
		w.Result(rec, m)
		stats.CountMatch(m, len(polyAHits) > 0)
	}

	var cells []cluster.Cell
	if p.clusters != nil {
		cells = p.clusters.Cells()
	}
	w.Summary(p.version, stats, cells)

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush report: %w", err)
	}

	p.logger.Info("run complete",
		zap.Int("reads", stats.Reads),
		zap.Int("aligned", stats.Aligned),
		zap.Int("withGene", stats.WithGene))

	return stats, nil
}
