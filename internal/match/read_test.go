package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchannot/matchannot/internal/annot"
)

func makeStrandedGene(name string, strand int8, pairs ...int64) *annot.Annotation {
	tran := annot.NewAnnotation(pairs[0], pairs[len(pairs)-1], strand, name+"-T1")
	for i := 0; i+1 < len(pairs); i += 2 {
		tran.AddChild(annot.NewAnnotation(pairs[i], pairs[i+1], strand, name+"-exon"))
	}
	gene := annot.NewAnnotation(pairs[0], pairs[len(pairs)-1], strand, name)
	gene.AddChild(tran)
	return gene
}

func TestMatchReadBestGene(t *testing.T) {
	ix := annot.NewIndex()
	chr1 := ix.Chrom("chr1")
	chr1.AddChild(makeStrandedGene("WEAK", annot.Forward, 50, 5000))
	chr1.AddChild(makeStrandedGene("EXACT", annot.Forward, 100, 200, 300, 400))
	cursor := annot.NewCursor(ix)

	m := MatchRead(cursor, "chr1", 100, 400, annot.Forward, spans(100, 200, 300, 400))

	require.NotNil(t, m.Best)
	assert.Equal(t, "EXACT", m.Best.Gene.Name)
	assert.Equal(t, ScoreBest, m.Best.Score)
	assert.False(t, m.Best.OppositeStrand)
	assert.Len(t, m.Hits, 2)
}

func TestMatchReadNoGenes(t *testing.T) {
	ix := annot.NewIndex()
	ix.Chrom("chr1").AddChild(makeStrandedGene("FAR", annot.Forward, 900000, 990000))
	cursor := annot.NewCursor(ix)

	m := MatchRead(cursor, "chr1", 100, 400, annot.Forward, spans(100, 400))
	assert.Nil(t, m.Best)
	assert.Empty(t, m.Hits)
}

func TestMatchReadOppositeStrand(t *testing.T) {
	ix := annot.NewIndex()
	ix.Chrom("chr1").AddChild(makeStrandedGene("MINUS", annot.Reverse, 100, 200, 300, 400))
	cursor := annot.NewCursor(ix)

	m := MatchRead(cursor, "chr1", 100, 400, annot.Forward, spans(100, 200, 300, 400))

	require.NotNil(t, m.Best)
	assert.Equal(t, "MINUS", m.Best.Gene.Name)
	assert.True(t, m.Best.OppositeStrand)
	assert.Equal(t, ScoreBest, m.Best.Score)
}

func TestMatchReadSkipsOppositeStrandOnGoodMatch(t *testing.T) {
	ix := annot.NewIndex()
	chr1 := ix.Chrom("chr1")
	chr1.AddChild(makeStrandedGene("PLUS", annot.Forward, 100, 200, 300, 400))
	chr1.AddChild(makeStrandedGene("MINUS", annot.Reverse, 100, 200, 300, 400))
	cursor := annot.NewCursor(ix)

	m := MatchRead(cursor, "chr1", 100, 400, annot.Forward, spans(100, 200, 300, 400))

	require.NotNil(t, m.Best)
	assert.Equal(t, "PLUS", m.Best.Gene.Name)
	// The aligned strand already gave a score above the retry threshold,
	// so the minus-strand gene was never considered.
	assert.Len(t, m.Hits, 1)
}

func TestMatchReadRetriesOppositeStrandOnWeakMatch(t *testing.T) {
	ix := annot.NewIndex()
	chr1 := ix.Chrom("chr1")
	// The plus-strand gene only yields a weak overlap; the minus-strand
	// gene matches exactly.
	chr1.AddChild(makeStrandedGene("PLUS", annot.Forward, 50, 5000))
	chr1.AddChild(makeStrandedGene("MINUS", annot.Reverse, 100, 200, 300, 400))
	cursor := annot.NewCursor(ix)

	m := MatchRead(cursor, "chr1", 100, 400, annot.Forward, spans(100, 200, 300, 400))

	require.NotNil(t, m.Best)
	assert.Equal(t, "MINUS", m.Best.Gene.Name)
	assert.True(t, m.Best.OppositeStrand)
	assert.Len(t, m.Hits, 2)
}

func TestStatsCountMatch(t *testing.T) {
	var stats Stats

	gene := makeStrandedGene("G", annot.Forward, 100, 400)
	hit := GeneHit{Gene: gene, Score: ScoreBest}
	m := ReadMatch{Hits: []GeneHit{hit}, Best: &hit}

	stats.CountMatch(m, true)
	stats.CountMatch(m, false)
	stats.CountMatch(ReadMatch{}, true) // no gene found, not counted

	assert.Equal(t, 2, stats.WithGene)
	assert.Equal(t, 2, stats.ByScore[ScoreBest])
	assert.Equal(t, 1, stats.PolyAByScore[ScoreBest])
	assert.Equal(t, 0, stats.Reverse)
}
