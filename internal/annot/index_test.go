package annot

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordSeq(recs []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, rec := range recs {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func TestBuildIndex(t *testing.T) {
	recs := []Record{
		{Chrom: "chr1", Type: RecordGene, Start: 100, End: 900, Strand: Forward, GeneName: "G1"},
		{Chrom: "chr1", Type: RecordTranscript, Start: 100, End: 500, Strand: Forward, GeneName: "G1", TranName: "T1", TranID: "ENST01"},
		{Chrom: "chr1", Type: RecordExon, Start: 100, End: 200, Strand: Forward, GeneName: "G1", TranName: "T1", ExonNumber: 1},
		{Chrom: "chr1", Type: RecordStartCodon, Start: 150, End: 152, Strand: Forward, GeneName: "G1", TranName: "T1"},
		{Chrom: "chr1", Type: RecordExon, Start: 300, End: 500, Strand: Forward, GeneName: "G1", TranName: "T1", ExonNumber: 2},
		{Chrom: "chr1", Type: RecordStopCodon, Start: 480, End: 482, Strand: Forward, GeneName: "G1", TranName: "T1"},
		{Chrom: "chr2", Type: RecordGene, Start: 1000, End: 2000, Strand: Reverse, GeneName: "G2"},
		{Chrom: "chr2", Type: RecordTranscript, Start: 1000, End: 2000, Strand: Reverse, GeneName: "G2", TranName: "T2", TranID: "ENST02"},
		{Chrom: "chr2", Type: RecordExon, Start: 1000, End: 2000, Strand: Reverse, GeneName: "G2", TranName: "T2", ExonNumber: 1},
	}

	ix, err := BuildIndex(recordSeq(recs))
	require.NoError(t, err)

	assert.Equal(t, []string{"chr1", "chr2"}, ix.Chromosomes())
	assert.Equal(t, 2, ix.GeneCount())

	top, err := ix.GenesFor("chr1")
	require.NoError(t, err)
	require.Equal(t, 1, top.NumChildren())

	gene := top.At(0)
	assert.Equal(t, "G1", gene.Name)

	require.Equal(t, 1, gene.NumChildren())
	tran := gene.At(0)
	assert.Equal(t, "T1", tran.Name)
	assert.Equal(t, "ENST01", tran.ID)
	assert.Equal(t, int64(302), tran.Length) // 101 + 201 exonic bases
	assert.Equal(t, int64(150), tran.StartCodon)
	assert.Equal(t, int64(480), tran.StopCodon)

	require.Equal(t, 2, tran.NumChildren())
	assert.Equal(t, "T1/1", tran.At(0).Name)
	assert.Equal(t, "T1/2", tran.At(1).Name)
}

func TestBuildIndexGeneNameMismatch(t *testing.T) {
	recs := []Record{
		{Chrom: "chr1", Type: RecordGene, Start: 100, End: 900, Strand: Forward, GeneName: "G1"},
		{Chrom: "chr1", Type: RecordTranscript, Start: 100, End: 500, Strand: Forward, GeneName: "OTHER", TranName: "T1"},
	}
	_, err := BuildIndex(recordSeq(recs))
	assert.Error(t, err)
}

func TestBuildIndexExonsOutOfSequence(t *testing.T) {
	recs := []Record{
		{Chrom: "chr1", Type: RecordGene, Start: 100, End: 900, Strand: Forward, GeneName: "G1"},
		{Chrom: "chr1", Type: RecordTranscript, Start: 100, End: 500, Strand: Forward, GeneName: "G1", TranName: "T1"},
		{Chrom: "chr1", Type: RecordExon, Start: 100, End: 200, Strand: Forward, GeneName: "G1", TranName: "T1", ExonNumber: 2},
	}
	_, err := BuildIndex(recordSeq(recs))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of sequence")
}

func TestBuildIndexFlat(t *testing.T) {
	recs := []Record{
		{Chrom: "chr1", Type: RecordExon, Start: 300, End: 400, Strand: Forward, GeneName: "G1", TranName: "T1", TranID: "ENST01"},
		{Chrom: "chr1", Type: RecordExon, Start: 600, End: 700, Strand: Forward, GeneName: "G1", TranName: "T1", TranID: "ENST01"},
		{Chrom: "chr1", Type: RecordExon, Start: 350, End: 450, Strand: Forward, GeneName: "G1", TranName: "T2", TranID: "ENST02"},
	}

	ix, err := BuildIndexFlat(recordSeq(recs))
	require.NoError(t, err)

	top, err := ix.GenesFor("chr1")
	require.NoError(t, err)
	require.Equal(t, 1, top.NumChildren())

	// Gene bounds are the union of its exons.
	gene := top.At(0)
	assert.Equal(t, int64(300), gene.Start)
	assert.Equal(t, int64(700), gene.End)

	require.Equal(t, 2, gene.NumChildren())
	t1 := gene.At(0)
	assert.Equal(t, int64(300), t1.Start)
	assert.Equal(t, int64(700), t1.End)
	assert.Equal(t, int64(202), t1.Length)
	assert.Equal(t, 2, t1.NumChildren())

	t2 := gene.At(1)
	assert.Equal(t, "T2", t2.Name)
	assert.Equal(t, int64(101), t2.Length)
}

func TestGenesForUnknownChromosome(t *testing.T) {
	ix := NewIndex()
	_, err := ix.GenesFor("chrUn")
	assert.ErrorIs(t, err, ErrUnknownChromosome)
}

func TestGenesNamed(t *testing.T) {
	ix := NewIndex()
	ix.Chrom("chr1").AddChild(NewAnnotation(100, 200, Forward, "DUP"))
	ix.Chrom("chr2").AddChild(NewAnnotation(500, 600, Reverse, "DUP"))

	genes, err := ix.GenesNamed("DUP")
	require.NoError(t, err)
	assert.Len(t, genes, 2)

	_, err = ix.GenesNamed("NOSUCH")
	assert.ErrorIs(t, err, ErrUnknownGene)
}
