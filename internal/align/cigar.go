package align

import (
	"fmt"

	"github.com/biogo/hts/sam"
)

// ExonsFromCigar decodes a CIGAR into the read's exon list. start is the
// 1-based genomic position of the first aligned base. Skipped regions (N)
// separate exons; match/equal/mismatch operations extend the current exon;
// deletions extend it and count as deletes; insertions count as inserts
// without consuming reference. Clips and padding are ignored.
//
// Substs is initialized to -1 on every exon; ApplySubstitutions fills it
// in when an MD tag is available.
func ExonsFromCigar(cigar sam.Cigar, start int64) []Exon {
	var exons []Exon

	refPos := start
	cur := Exon{Start: start, Substs: -1}
	open := false

	for _, co := range cigar {
		n := int64(co.Len())
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if !open {
				cur = Exon{Start: refPos, Substs: -1}
				open = true
			}
			refPos += n
		case sam.CigarDeletion:
			if !open {
				cur = Exon{Start: refPos, Substs: -1}
				open = true
			}
			cur.Deletes += int(n)
			refPos += n
		case sam.CigarInsertion:
			if open {
				cur.Inserts += int(n)
			}
		case sam.CigarSkipped:
			if open {
				cur.End = refPos - 1
				exons = append(exons, cur)
				open = false
			}
			refPos += n
		case sam.CigarSoftClipped, sam.CigarHardClipped, sam.CigarPadded:
			// no reference consumed
		}
	}

	if open {
		cur.End = refPos - 1
		exons = append(exons, cur)
	}

	return exons
}

// GenomicLength returns the number of reference bases the CIGAR spans,
// including deletions and skipped regions.
func GenomicLength(cigar sam.Cigar) int64 {
	var length int64
	for _, co := range cigar {
		if co.Type().Consumes().Reference == 1 {
			length += int64(co.Len())
		}
	}
	return length
}

// ApplySubstitutions walks an MD tag and distributes its substitution
// counts over the exon list. MD covers every reference-consuming aligned
// base (matches, mismatches and deletions) but not skipped regions, so
// aligned-reference offsets map onto exons by cumulative exon length.
func ApplySubstitutions(exons []Exon, md string) error {
	if len(exons) == 0 {
		return nil
	}

	for ix := range exons {
		exons[ix].Substs = 0
	}

	// Cumulative aligned-reference length at the end of each exon.
	bounds := make([]int64, len(exons))
	var cum int64
	for ix, e := range exons {
		cum += e.Len()
		bounds[ix] = cum
	}

	exonFor := func(offset int64) int {
		for ix, b := range bounds {
			if offset < b {
				return ix
			}
		}
		return len(exons) - 1
	}

	var offset int64
	i := 0
	for i < len(md) {
		c := md[i]
		switch {
		case c >= '0' && c <= '9': // run of matches
			var n int64
			for i < len(md) && md[i] >= '0' && md[i] <= '9' {
				n = n*10 + int64(md[i]-'0')
				i++
			}
			offset += n
		case c == '^': // deletion: reference bases absent from the read
			i++
			for i < len(md) && isBase(md[i]) {
				offset++
				i++
			}
		case isBase(c): // substituted reference base
			exons[exonFor(offset)].Substs++
			offset++
			i++
		default:
			return fmt.Errorf("malformed MD string %q at position %d", md, i)
		}
	}

	return nil
}

// Variant is one reference-relative edit recovered from the MD tag.
type Variant struct {
	Kind byte   // 's' substitution, 'd' deletion
	Pos  int64  // 1-based genomic position
	Ref  string // reference base(s) at the site
}

// VariantsFromMD recovers the substitutions and deletions an MD tag
// records, with genomic positions mapped through the exon list.
func VariantsFromMD(exons []Exon, md string) ([]Variant, error) {
	if len(exons) == 0 || md == "" {
		return nil, nil
	}

	starts := make([]int64, len(exons)) // aligned-ref offset at each exon start
	var cum int64
	for ix, e := range exons {
		starts[ix] = cum
		cum += e.Len()
	}

	genomic := func(offset int64) int64 {
		for ix := len(exons) - 1; ix >= 0; ix-- {
			if offset >= starts[ix] {
				return exons[ix].Start + (offset - starts[ix])
			}
		}
		return exons[0].Start + offset
	}

	var vars []Variant
	var offset int64
	i := 0
	for i < len(md) {
		c := md[i]
		switch {
		case c >= '0' && c <= '9':
			var n int64
			for i < len(md) && md[i] >= '0' && md[i] <= '9' {
				n = n*10 + int64(md[i]-'0')
				i++
			}
			offset += n
		case c == '^':
			i++
			at := i
			for i < len(md) && isBase(md[i]) {
				i++
			}
			vars = append(vars, Variant{Kind: 'd', Pos: genomic(offset), Ref: md[at:i]})
			offset += int64(i - at)
		case isBase(c):
			vars = append(vars, Variant{Kind: 's', Pos: genomic(offset), Ref: string(c)})
			offset++
			i++
		default:
			return nil, fmt.Errorf("malformed MD string %q at position %d", md, i)
		}
	}

	return vars, nil
}

func isBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	}
	return false
}
