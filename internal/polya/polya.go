// Package polya scans read sequences for polyadenylation signal motifs.
package polya

import "strings"

// Reach is how far back from the 3' end of a read the motif scan looks.
const Reach = 30

// Canonical polyadenylation signal hexamers, by observed frequency.
var motifs = []string{"AATAAA", "ATTAAA"}

// Hit is one motif occurrence near the 3' end of a read. Offset is the
// distance of the motif start from the read's 3' end, reported as a
// negative number of bases.
type Hit struct {
	Motif  string
	Offset int
}

// Finder scans for poly-A signal motifs near read 3' ends.
type Finder struct {
	reach int
}

// NewFinder creates a finder with the default reach.
func NewFinder() *Finder {
	return &Finder{reach: Reach}
}

// NewFinderReach creates a finder that scans the given number of bases
// from the 3' end.
func NewFinderReach(reach int) *Finder {
	return &Finder{reach: reach}
}

// FindMotifs returns motif occurrences within reach of the read's 3' end.
// For a minus-strand alignment the stored sequence is the reverse
// complement of the transcript, so the 3' end lies at the front of the
// string and motifs appear reverse-complemented.
func (f *Finder) FindMotifs(bases string, strand int8) []Hit {
	var hits []Hit

	if strand >= 0 {
		tail := bases
		if len(tail) > f.reach {
			tail = tail[len(tail)-f.reach:]
		}
		base := len(bases) - len(tail)
		for _, motif := range motifs {
			for at := 0; ; {
				ix := strings.Index(tail[at:], motif)
				if ix < 0 {
					break
				}
				pos := base + at + ix
				hits = append(hits, Hit{Motif: motif, Offset: pos - len(bases)})
				at += ix + 1
			}
		}
		return hits
	}

	head := bases
	if len(head) > f.reach {
		head = head[:f.reach]
	}
	for _, motif := range motifs {
		rc := reverseComplement(motif)
		for at := 0; ; {
			ix := strings.Index(head[at:], rc)
			if ix < 0 {
				break
			}
			hits = append(hits, Hit{Motif: motif, Offset: -(at + ix + len(rc))})
			at += ix + 1
		}
	}
	return hits
}

func reverseComplement(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		var c byte
		switch s[len(s)-1-i] {
		case 'A':
			c = 'T'
		case 'T':
			c = 'A'
		case 'G':
			c = 'C'
		case 'C':
			c = 'G'
		default:
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}
