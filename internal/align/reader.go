package align

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"
)

var (
	mdTag = sam.Tag{'M', 'D'}
	asTag = sam.Tag{'A', 'S'} // aligner score
	utTag = sam.Tag{'u', 'T'} // mismatch reason, aligner-specific
)

// Record is one decoded SAM alignment: orientation, genomic interval, and
// the exon list derived from the CIGAR and MD tag. For unaligned records
// only Name, Flags, Seq and the diagnostic tags are populated.
type Record struct {
	Name   string
	Flags  sam.Flags
	Chrom  string
	Start  int64 // 1-based
	End    int64 // 1-based, inclusive
	Strand int8
	Cigar  sam.Cigar
	Exons  []Exon
	MD     string // raw MD tag, "" if absent
	Seq    string

	AlignScore     string // raw AS tag, "" if absent
	MismatchReason string // raw uT tag, "" if absent
}

// Aligned reports whether the record carries an alignment.
func (r *Record) Aligned() bool {
	return r.Flags&sam.Unmapped == 0
}

// Secondary reports whether the record is a secondary (multi-mapped)
// alignment.
func (r *Record) Secondary() bool {
	return r.Flags&sam.Secondary != 0
}

// Reader decodes SAM records into Records.
type Reader struct {
	sr *sam.Reader
}

// NewReader creates a Reader over a SAM stream.
func NewReader(r io.Reader) (*Reader, error) {
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open SAM stream: %w", err)
	}
	return &Reader{sr: sr}, nil
}

// Read returns the next decoded record, or io.EOF at end of stream.
func (r *Reader) Read() (*Record, error) {
	rec, err := r.sr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read SAM record: %w", err)
	}
	return decode(rec)
}

func decode(rec *sam.Record) (*Record, error) {
	rr := &Record{
		Name:   rec.Name,
		Flags:  rec.Flags,
		Seq:    string(rec.Seq.Expand()),
		Strand: 1,
	}
	if rec.Flags&sam.Reverse != 0 {
		rr.Strand = -1
	}

	if aux := rec.AuxFields.Get(asTag); aux != nil {
		rr.AlignScore = aux.String()
	}
	if aux := rec.AuxFields.Get(utTag); aux != nil {
		rr.MismatchReason = aux.String()
	}

	if !rr.Aligned() {
		return rr, nil
	}

	if rec.Ref != nil {
		rr.Chrom = rec.Ref.Name()
	}
	rr.Start = int64(rec.Pos) + 1 // SAM records are 0-based in memory
	rr.Cigar = rec.Cigar
	rr.Exons = ExonsFromCigar(rec.Cigar, rr.Start)
	rr.End = rr.Start + GenomicLength(rec.Cigar) - 1

	if aux := rec.AuxFields.Get(mdTag); aux != nil {
		if md, ok := aux.Value().(string); ok {
			rr.MD = md
			if err := ApplySubstitutions(rr.Exons, md); err != nil {
				return nil, fmt.Errorf("record %s: %w", rec.Name, err)
			}
		}
	}

	return rr, nil
}
