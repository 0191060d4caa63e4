package annot

import (
	"errors"
	"fmt"
	"iter"
	"sort"
)

// Lookup misses against the index. Callers treat these as absent results,
// not failures.
var (
	ErrUnknownChromosome = errors.New("chromosome not in annotation")
	ErrUnknownGene       = errors.New("gene not in annotation")
)

// Record types emitted by annotation ingesters.
const (
	RecordGene       = "gene"
	RecordTranscript = "transcript"
	RecordExon       = "exon"
	RecordStartCodon = "start_codon"
	RecordStopCodon  = "stop_codon"
)

// Record is one decoded annotation entry, already parsed and classified by
// an ingester. Records arrive in file order.
type Record struct {
	Chrom      string
	Type       string
	Start      int64
	End        int64
	Strand     int8
	GeneName   string
	TranName   string
	TranID     string
	ExonNumber int // 0 if the record does not carry one
}

// Index maps a chromosome name to its top-level Annotation node, whose
// children are genes. Built once, read-only afterward except for the lazily
// cached gene-name lookup table.
type Index struct {
	chroms   map[string]*Annotation
	geneDict map[string][]*Annotation
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{chroms: make(map[string]*Annotation)}
}

// Chrom returns the top-level node for a chromosome, creating it on first
// use. Used by ingesters while populating the index.
func (ix *Index) Chrom(name string) *Annotation {
	ent, ok := ix.chroms[name]
	if !ok {
		ent = NewAnnotation(0, 0, Forward, name) // dummy top entry for chr
		ix.chroms[name] = ent
	}
	return ent
}

// Chromosomes returns the chromosome names in sorted order.
func (ix *Index) Chromosomes() []string {
	names := make([]string, 0, len(ix.chroms))
	for name := range ix.chroms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenesFor returns the top-level Annotation holding the genes of a
// chromosome, or ErrUnknownChromosome.
func (ix *Index) GenesFor(chrom string) (*Annotation, error) {
	ent, ok := ix.chroms[chrom]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChromosome, chrom)
	}
	return ent, nil
}

// GenesNamed returns the gene nodes sharing a name, across all
// chromosomes, or ErrUnknownGene. Gene names are not unique in GENCODE.
// The lookup table is built on first use and cached.
func (ix *Index) GenesNamed(name string) ([]*Annotation, error) {
	if ix.geneDict == nil {
		ix.geneDict = make(map[string][]*Annotation)
		for _, chrom := range ix.Chromosomes() {
			for _, gene := range ix.chroms[chrom].Children() {
				ix.geneDict[gene.Name] = append(ix.geneDict[gene.Name], gene)
			}
		}
	}
	genes, ok := ix.geneDict[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGene, name)
	}
	return genes, nil
}

// GeneCount returns the total number of genes in the index.
func (ix *Index) GeneCount() int {
	count := 0
	for _, ent := range ix.chroms {
		count += ent.NumChildren()
	}
	return count
}

// BuildIndex builds an index from a stream of hierarchical records, where
// genes, transcripts and exons each have explicit entries and exons follow
// their transcript. Structural violations in the stream (a transcript
// naming a gene other than the current one, exons out of sequence) are
// returned as errors.
func BuildIndex(records iter.Seq2[Record, error]) (*Index, error) {
	ix := NewIndex()

	var geneEnt, tranEnt *Annotation

	for rec, err := range records {
		if err != nil {
			return nil, err
		}

		chrEnt := ix.Chrom(rec.Chrom)

		switch rec.Type {
		case RecordGene:
			geneEnt = NewAnnotation(rec.Start, rec.End, rec.Strand, rec.GeneName)
			chrEnt.AddChild(geneEnt)

		case RecordTranscript:
			if geneEnt == nil || rec.GeneName != geneEnt.Name {
				return nil, fmt.Errorf("gene name %s out of place in transcript %s", rec.GeneName, rec.TranName)
			}
			tranEnt = NewAnnotation(rec.Start, rec.End, rec.Strand, rec.TranName)
			tranEnt.ID = rec.TranID
			geneEnt.AddChild(tranEnt)

		case RecordExon:
			if geneEnt == nil || rec.GeneName != geneEnt.Name {
				return nil, fmt.Errorf("gene name %s out of place in exon of %s", rec.GeneName, rec.TranName)
			}
			if tranEnt == nil || rec.TranName != tranEnt.Name {
				return nil, fmt.Errorf("transcript name %s out of place in exon %d", rec.TranName, rec.ExonNumber)
			}
			if rec.ExonNumber != tranEnt.NumChildren()+1 {
				return nil, fmt.Errorf("transcript %s exons out of sequence", rec.TranName)
			}
			tranEnt.Length += rec.End - rec.Start + 1
			exonName := fmt.Sprintf("%s/%d", rec.TranName, rec.ExonNumber)
			tranEnt.AddChild(NewAnnotation(rec.Start, rec.End, rec.Strand, exonName))

		case RecordStartCodon:
			if tranEnt != nil {
				tranEnt.StartCodon = rec.Start
			}

		case RecordStopCodon:
			if tranEnt != nil {
				tranEnt.StopCodon = rec.Start
			}
		}
	}

	return ix, nil
}

// BuildIndexFlat builds an index from a stream of per-exon records, where
// genes and transcripts have no entries of their own and their bounds are
// inferred as the union of the exons they contain.
func BuildIndexFlat(records iter.Seq2[Record, error]) (*Index, error) {
	ix := NewIndex()

	var geneEnt, tranEnt *Annotation

	for rec, err := range records {
		if err != nil {
			return nil, err
		}

		chrEnt := ix.Chrom(rec.Chrom)

		switch rec.Type {
		case RecordExon:
			if geneEnt == nil || rec.GeneName != geneEnt.Name {
				geneEnt = NewAnnotation(rec.Start, rec.End, rec.Strand, rec.GeneName)
				chrEnt.AddChild(geneEnt)
			} else {
				geneEnt.UpdateStartEnd(rec.Start, rec.End)
			}

			if tranEnt == nil || rec.TranName != tranEnt.Name || rec.TranID != tranEnt.ID {
				tranEnt = NewAnnotation(rec.Start, rec.End, rec.Strand, rec.TranName)
				tranEnt.ID = rec.TranID
				geneEnt.AddChild(tranEnt)
			} else {
				tranEnt.UpdateStartEnd(rec.Start, rec.End)
			}
			tranEnt.Length += rec.End - rec.Start + 1

			exonNum := rec.ExonNumber
			if exonNum == 0 {
				exonNum = tranEnt.NumChildren() + 1
			} else if exonNum != tranEnt.NumChildren()+1 {
				return nil, fmt.Errorf("transcript %s exons out of sequence", rec.TranName)
			}
			exonName := fmt.Sprintf("%s/%d", rec.TranName, exonNum)
			tranEnt.AddChild(NewAnnotation(rec.Start, rec.End, rec.Strand, exonName))

		case RecordStartCodon:
			if tranEnt != nil {
				tranEnt.StartCodon = rec.Start
			}

		case RecordStopCodon:
			if tranEnt != nil {
				tranEnt.StopCodon = rec.Start
			}
		}
	}

	return ix, nil
}
