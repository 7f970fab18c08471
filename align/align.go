package align

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TuftsBCB/seq"
)

// A Record is a named sequence that may be defined over only part of its
// declared length. Readers that report a sequence's total length without
// reporting every residue (like hhr alignments, which only show the aligned
// region) store the residues they saw in Segments and leave the rest of the
// sequence unknown.
type Record struct {
	// The identifier of the sequence, as reported by whatever produced it.
	Name string

	// An optional free-form description.
	Description string

	// The declared total length of the sequence. Always >= the number of
	// residues stored in Segments.
	Length int

	// The known residues, keyed by the offset (starting from 0) of the first
	// residue in each run. Segments never overlap.
	Segments map[int][]seq.Residue

	// Per-residue annotation tracks, e.g. "Consensus" or "ss_pred".
	// Each value is exactly Length characters long, with blanks at offsets
	// where the annotation is unknown.
	LetterAnnotations map[string]string

	// Free-form annotations that apply to the whole record.
	Annotations map[string]string
}

// NewRecord creates an empty record with the given name and declared length.
func NewRecord(name string, length int) *Record {
	return &Record{
		Name:              name,
		Length:            length,
		Segments:          make(map[int][]seq.Residue),
		LetterAnnotations: make(map[string]string),
	}
}

// SetSegment places a run of residues at the given offset.
func (r *Record) SetSegment(offset int, residues []seq.Residue) {
	r.Segments[offset] = residues
}

// At returns the residue at the given offset. The boolean is false if the
// offset lies outside every known segment.
func (r *Record) At(offset int) (seq.Residue, bool) {
	for start, residues := range r.Segments {
		if offset >= start && offset < start+len(residues) {
			return residues[offset-start], true
		}
	}
	return 0, false
}

// Residues returns all known residues, in offset order. Unknown stretches of
// the sequence are skipped, so the result may be shorter than Length.
func (r *Record) Residues() []seq.Residue {
	starts := make([]int, 0, len(r.Segments))
	for start := range r.Segments {
		starts = append(starts, start)
	}
	sort.Ints(starts)

	residues := make([]seq.Residue, 0, r.Length)
	for _, start := range starts {
		residues = append(residues, r.Segments[start]...)
	}
	return residues
}

// An Alignment is a pairwise alignment of two records. By convention the
// target (template) record comes first and the query second.
type Alignment struct {
	Records []*Record

	// Breakpoints describing the alignment. Each pair holds an offset into
	// the first and second record's ungapped sequence; consecutive pairs
	// delimit one run of matched, inserted or deleted columns. See
	// InferCoordinates.
	Coordinates [][2]int

	// Scalar annotations for the whole alignment, e.g. scores and E-values.
	Annotations map[string]float64

	// Per-column annotation tracks, indexed by alignment column.
	ColumnAnnotations map[string]string
}

// Gapped reconstructs the gapped, column-aligned text of record i from the
// coordinate matrix. It is the inverse of InferCoordinates: positions where
// the other record advances but record i does not become '-' characters.
//
// An error is returned if a residue required by the coordinates is not
// defined in the record, or if the coordinates themselves are malformed.
func (al *Alignment) Gapped(i int) (string, error) {
	if i < 0 || i >= len(al.Records) {
		return "", fmt.Errorf("No record %d in a %d-record alignment.",
			i, len(al.Records))
	}
	if len(al.Records) != 2 {
		return "", fmt.Errorf("Gapped requires a pairwise alignment, "+
			"but this one has %d records.", len(al.Records))
	}
	rec := al.Records[i]

	var out strings.Builder
	for k := 1; k < len(al.Coordinates); k++ {
		prev, cur := al.Coordinates[k-1], al.Coordinates[k]
		di, dj := cur[i]-prev[i], cur[1-i]-prev[1-i]
		if di < 0 || dj < 0 || (di > 0 && dj > 0 && di != dj) {
			return "", fmt.Errorf("Malformed coordinates: step %v -> %v.",
				prev, cur)
		}
		if di == 0 {
			out.WriteString(strings.Repeat("-", dj))
			continue
		}
		for off := prev[i]; off < cur[i]; off++ {
			residue, ok := rec.At(off)
			if !ok {
				return "", fmt.Errorf("Record '%s' has no residue at "+
					"offset %d.", rec.Name, off)
			}
			out.WriteByte(byte(residue))
		}
	}
	return out.String(), nil
}
