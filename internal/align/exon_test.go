package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExonLen(t *testing.T) {
	e := Exon{Start: 100, End: 109}
	assert.Equal(t, int64(10), e.Len())
}

func TestQScore(t *testing.T) {
	tests := []struct {
		name string
		exon Exon
		want float64
	}{
		{"one substitution in ten bases", Exon{Start: 100, End: 109, Substs: 1}, 10.0},
		{"error free", Exon{Start: 100, End: 109, Substs: 0}, 99.9},
		{"no MD tag", Exon{Start: 100, End: 109, Substs: -1}, 0},
		{"one error in a hundred bases", Exon{Start: 100, End: 199, Substs: 1}, 20.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.exon.QScore(), 0.01)
		})
	}
}

func TestQScoreCountsInsertsInAlignedLength(t *testing.T) {
	// 1 error over 10 reference bases + 0 inserts vs over 10 + 10.
	without := Exon{Start: 100, End: 109, Substs: 1}
	with := Exon{Start: 100, End: 109, Substs: 0, Inserts: 1}
	assert.Greater(t, with.QScore(), 0.0)
	assert.InDelta(t, 10.0, without.QScore(), 0.01)
	assert.InDelta(t, 10.41, with.QScore(), 0.01)
}
