package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchannot/matchannot/internal/align"
	"github.com/matchannot/matchannot/internal/annot"
	"github.com/matchannot/matchannot/internal/cluster"
	"github.com/matchannot/matchannot/internal/match"
	"github.com/matchannot/matchannot/internal/polya"
)

func testRecord() *align.Record {
	return &align.Record{
		Name:   "c1/f2p0/555",
		Chrom:  "chr1",
		Start:  100,
		End:    400,
		Strand: 1,
		Exons: []align.Exon{
			{Start: 100, End: 200, Substs: 0},
			{Start: 300, End: 400, Substs: 1},
		},
	}
}

func testGene() *annot.Annotation {
	tran := annot.NewAnnotation(100, 400, annot.Forward, "ALPHA-201")
	tran.ID = "ENST01"
	tran.Length = 202
	tran.StartCodon = 150
	tran.AddChild(annot.NewAnnotation(100, 200, annot.Forward, "ALPHA-201/1"))
	tran.AddChild(annot.NewAnnotation(300, 400, annot.Forward, "ALPHA-201/2"))

	gene := annot.NewAnnotation(100, 400, annot.Forward, "ALPHA")
	gene.AddChild(tran)
	return gene
}

func render(t *testing.T, fn func(w *Writer) error) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, fn(w))
	require.NoError(t, w.Flush())
	return buf.String()
}

func TestIsoformLine(t *testing.T) {
	out := render(t, func(w *Writer) error {
		w.Isoform(testRecord())
		return nil
	})
	assert.Contains(t, out, "isoform:\tc1/f2p0/555\t100\t400\tchr1\t+\t300\n")
	assert.NotContains(t, out, "multimap:")
}

func TestUnalignedBlock(t *testing.T) {
	rec := &align.Record{Name: "lost", Flags: 4, MismatchReason: "uT:A:M"}
	out := render(t, func(w *Writer) error {
		w.Unaligned(rec)
		return nil
	})
	assert.Contains(t, out, "result:\tlost\tno_alignment_found\n")
	assert.Contains(t, out, "uT:A:M\n")
}

func TestGeneHitBlock(t *testing.T) {
	rec := testRecord()
	gene := testGene()
	bestTran, score, details := match.MatchTranscripts(rec.Exons, gene)
	require.Equal(t, match.ScoreBest, score)

	hit := match.GeneHit{
		Gene:           gene,
		BestTranscript: bestTran,
		Score:          score,
		Transcripts:    details,
	}

	out := render(t, func(w *Writer) error {
		return w.GeneHit(rec, hit)
	})

	assert.Contains(t, out, "gene:\tALPHA\t100\t0\t400\t0\t+\n")
	assert.Contains(t, out, "tr:\tALPHA-201\tsc: 5\tex: 2\tlen: 202\tid: ENST01\t[1] [2]\n")

	// The coordinate walk prints both matched exon pairs and notes the
	// start codon inside the first one.
	lines := strings.Split(out, "\n")
	var exonLines, startLines int
	for _, line := range lines {
		if strings.HasPrefix(line, "exon:") {
			exonLines++
		}
		if strings.HasPrefix(line, "start:") {
			startLines++
		}
	}
	assert.Equal(t, 2, exonLines)
	assert.Equal(t, 1, startLines)
}

func TestGeneHitNoMatchPrintsReadExons(t *testing.T) {
	rec := testRecord()
	gene := testGene()

	hit := match.GeneHit{Gene: gene, Score: match.ScoreNone}
	out := render(t, func(w *Writer) error {
		return w.GeneHit(rec, hit)
	})
	assert.Contains(t, out, "tr:\t(none)\n")
}

func TestResultLine(t *testing.T) {
	rec := testRecord()
	gene := testGene()
	bestTran, score, details := match.MatchTranscripts(rec.Exons, gene)

	hit := match.GeneHit{Gene: gene, BestTranscript: bestTran, Score: score, Transcripts: details}
	m := match.ReadMatch{Hits: []match.GeneHit{hit}, Best: &hit}

	out := render(t, func(w *Writer) error {
		w.Result(rec, m)
		return nil
	})
	assert.Contains(t, out, "result:\tc1/f2p0/555\tALPHA\tALPHA-201\tex: 2\tsc: 5\t5-3: 0 0\n")
}

func TestResultLineNoGenes(t *testing.T) {
	out := render(t, func(w *Writer) error {
		w.Result(testRecord(), match.ReadMatch{})
		return nil
	})
	assert.Contains(t, out, "result:\tc1/f2p0/555\tno_genes_found\n")
}

func TestPolyALines(t *testing.T) {
	out := render(t, func(w *Writer) error {
		w.PolyA([]polya.Hit{{Motif: "AATAAA", Offset: -12}})
		return nil
	})
	assert.Contains(t, out, "polyA:\n")
	assert.Contains(t, out, " AATAAA: -12\n")
}

func TestClusterReads(t *testing.T) {
	list := clusterList(t)
	out := render(t, func(w *Writer) error {
		w.ClusterReads(list, "c1/f2p0/555")
		return nil
	})
	assert.Contains(t, out, "cl-FL: 1 ")
	assert.Contains(t, out, "1001|30_500")
}

func clusterList(t *testing.T) *cluster.List {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.csv")
	content := "cluster_id,read_id,read_type\nc1,cellA/1001/30_500_CCS,FL\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	list, err := cluster.ReadFile(path)
	require.NoError(t, err)
	return list
}

func TestSummary(t *testing.T) {
	var stats match.Stats
	stats.Reads = 10
	stats.Aligned = 8
	stats.WithGene = 6
	stats.ByScore[5] = 4

	out := render(t, func(w *Writer) error {
		w.Summary("1.0", stats, nil)
		return nil
	})
	assert.Contains(t, out, "summary: version 1.0\n")
	assert.Contains(t, out, "summary: 10 isoforms read\n")
	assert.Contains(t, out, "summary: 4 isoforms scored 5")
}
