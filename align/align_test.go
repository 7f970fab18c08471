package align

import (
	"reflect"
	"testing"

	"github.com/TuftsBCB/seq"
)

func residues(s string) []seq.Residue {
	rs := make([]seq.Residue, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			rs = append(rs, seq.Residue(s[i]))
		}
	}
	return rs
}

func TestRecordAt(t *testing.T) {
	r := NewRecord("test", 20)
	r.SetSegment(3, residues("ACDEF"))
	r.SetSegment(12, residues("KLM"))

	known := map[int]seq.Residue{
		3: 'A', 7: 'F', 12: 'K', 14: 'M',
	}
	for offset, want := range known {
		got, ok := r.At(offset)
		if !ok {
			t.Fatalf("No residue at offset %d, expected %c.", offset, want)
		}
		if got != want {
			t.Fatalf("Residue at offset %d is %c, expected %c.",
				offset, got, want)
		}
	}
	for _, offset := range []int{0, 2, 8, 11, 15, 19} {
		if got, ok := r.At(offset); ok {
			t.Fatalf("Unexpected residue %c at offset %d.", got, offset)
		}
	}
}

func TestRecordResidues(t *testing.T) {
	r := NewRecord("test", 20)
	r.SetSegment(12, residues("KLM"))
	r.SetSegment(3, residues("ACDEF"))

	got := r.Residues()
	want := residues("ACDEFKLM")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Residues are %s, expected %s.", string(got), string(want))
	}
}

// pairwise builds an alignment from two gapped strings the way the hhr
// reader does, so that Gapped can be checked as the inverse.
func pairwise(a, b string, aStart, bStart, aLen, bLen int) *Alignment {
	coords := InferCoordinates(a, b)
	for i := range coords {
		coords[i][0] += aStart
		coords[i][1] += bStart
	}
	first := NewRecord("first", aLen)
	first.SetSegment(aStart, residues(a))
	second := NewRecord("second", bLen)
	second.SetSegment(bStart, residues(b))
	return &Alignment{
		Records:     []*Record{first, second},
		Coordinates: coords,
	}
}

func TestGappedRoundTrip(t *testing.T) {
	tests := [][2]string{
		{"ACGT", "ACGT"},
		{"AC-WEFGH-K", "ACD-EFGHIK"},
		{"----ACGT", "TTTTACGT"},
		{"ACGTAA", "AC--AA"},
	}
	for _, test := range tests {
		al := pairwise(test[0], test[1], 5, 2, 30, 30)
		for i, want := range test {
			got, err := al.Gapped(i)
			if err != nil {
				t.Fatalf("%s", err)
			}
			if got != want {
				t.Fatalf("Gapped(%d) of (%q, %q) is %q, expected %q.",
					i, test[0], test[1], got, want)
			}
		}
	}
}

func TestGappedMissingResidue(t *testing.T) {
	al := pairwise("ACGT", "ACGT", 0, 0, 10, 10)
	al.Records[0].Segments = map[int][]seq.Residue{0: residues("AC")}
	if _, err := al.Gapped(0); err == nil {
		t.Fatalf("Expected an error for an undefined residue.")
	}
}
