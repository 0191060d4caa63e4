package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchannot/matchannot/internal/annot"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateSchema())
	return s
}

func buildTestIndex() *annot.Index {
	ix := annot.NewIndex()

	gene := annot.NewAnnotation(100, 900, annot.Forward, "ALPHA")
	tran := annot.NewAnnotation(100, 500, annot.Forward, "ALPHA-201")
	tran.ID = "ENST01"
	tran.Length = 302
	tran.StartCodon = 150
	tran.StopCodon = 480
	tran.AddChild(annot.NewAnnotation(100, 200, annot.Forward, "ALPHA-201/1"))
	tran.AddChild(annot.NewAnnotation(300, 500, annot.Forward, "ALPHA-201/2"))
	gene.AddChild(tran)
	ix.Chrom("chr1").AddChild(gene)

	minus := annot.NewAnnotation(5000, 6000, annot.Reverse, "BETA")
	minusTran := annot.NewAnnotation(5000, 6000, annot.Reverse, "BETA-201")
	minusTran.ID = "ENST02"
	minusTran.Length = 1001
	minusTran.AddChild(annot.NewAnnotation(5000, 6000, annot.Reverse, "BETA-201/1"))
	minus.AddChild(minusTran)
	ix.Chrom("chr2").AddChild(minus)

	return ix
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.SaveIndex(buildTestIndex()))

	loaded, err := s.LoadIndex()
	require.NoError(t, err)

	assert.Equal(t, []string{"chr1", "chr2"}, loaded.Chromosomes())
	assert.Equal(t, 2, loaded.GeneCount())

	top, err := loaded.GenesFor("chr1")
	require.NoError(t, err)
	gene := top.At(0)
	assert.Equal(t, "ALPHA", gene.Name)
	assert.Equal(t, int64(100), gene.Start)
	assert.Equal(t, int64(900), gene.End)
	assert.Equal(t, annot.Forward, gene.Strand)

	tran := gene.At(0)
	assert.Equal(t, "ALPHA-201", tran.Name)
	assert.Equal(t, "ENST01", tran.ID)
	assert.Equal(t, int64(302), tran.Length)
	assert.Equal(t, int64(150), tran.StartCodon)
	assert.Equal(t, int64(480), tran.StopCodon)

	require.Equal(t, 2, tran.NumChildren())
	assert.Equal(t, "ALPHA-201/1", tran.At(0).Name)
	assert.Equal(t, int64(300), tran.At(1).Start)

	// Absent codons survive the round trip as zero.
	top2, err := loaded.GenesFor("chr2")
	require.NoError(t, err)
	beta := top2.At(0).At(0)
	assert.Equal(t, int64(0), beta.StartCodon)
	assert.Equal(t, int64(0), beta.StopCodon)
	assert.Equal(t, annot.Reverse, beta.Strand)
}

func TestGeneCount(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.SaveIndex(buildTestIndex()))

	count, err := s.GeneCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLoadEmpty(t *testing.T) {
	s := openInMemory(t)
	loaded, err := s.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.GeneCount())
}

func TestIsCache(t *testing.T) {
	assert.True(t, IsCache("annotations.duckdb"))
	assert.True(t, IsCache("annotations.db"))
	assert.False(t, IsCache("annotations.gtf"))
	assert.False(t, IsCache("annotations.gtf.gz"))
}
