package hhr

import (
	"github.com/TuftsBCB/seq"

	"github.com/NewLimit/biopython/align"
)

// A hitAcc accumulates the alignment tracks of one hit while its blocks are
// being consumed. Long alignments are wrapped: the same Q/T tags repeat for
// every wrapped block, and each tagged line appends to its track. A fresh
// accumulator is created at each '>' header and consumed by finalize.
type hitAcc struct {
	hmmName, hmmDesc string
	targetName       string
	annotations      map[string]float64

	querySeq, queryCons, querySS                []byte
	targetSeq, targetCons, targetSS, targetDSSP []byte
	confidence, columnScore                     []byte

	// Start offsets come from the first block only; later blocks extend
	// the tracks without moving the origin.
	queryStart, targetStart       int
	queryStartSet, targetStartSet bool

	// Declared total sequence lengths, from the '(N)' field. Every block
	// must declare the same totals.
	queryLen, targetLen int
}

func newHitAcc(name, description string) *hitAcc {
	return &hitAcc{
		hmmName:     name,
		hmmDesc:     description,
		annotations: make(map[string]float64),
	}
}

func (h *hitAcc) setQueryTotal(total int, line string) error {
	if h.queryLen != 0 && h.queryLen != total {
		return inconsistentf(line,
			"Query length changed from %d to %d between blocks.",
			h.queryLen, total)
	}
	h.queryLen = total
	return nil
}

func (h *hitAcc) setTargetTotal(total int, line string) error {
	if h.targetLen != 0 && h.targetLen != total {
		return inconsistentf(line,
			"Template length changed from %d to %d between blocks.",
			h.targetLen, total)
	}
	h.targetLen = total
	return nil
}

// finalize converts the accumulated tracks into an alignment: it checks the
// column invariant, infers the coordinate breakpoints from the two gapped
// sequences, strips the gaps, and pads every annotation track out to its
// sequence's declared length.
func (h *hitAcc) finalize(meta *Meta) (*align.Alignment, error) {
	if !h.queryStartSet || !h.targetStartSet {
		return nil, inconsistentf("",
			"Hit '%s' is missing its sequence lines.", h.hmmName)
	}
	if len(h.targetSeq) != len(h.querySeq) {
		return nil, inconsistentf("",
			"Aligned template and query of hit '%s' have different "+
				"lengths: %d and %d.",
			h.hmmName, len(h.targetSeq), len(h.querySeq))
	}
	if h.queryLen != meta.MatchColumns {
		return nil, inconsistentf("",
			"Hit '%s' declares a query of length %d, but the run has "+
				"%d match columns.",
			h.hmmName, h.queryLen, meta.MatchColumns)
	}

	coords := align.InferCoordinates(string(h.targetSeq), string(h.querySeq))
	for i := range coords {
		coords[i][0] += h.targetStart
		coords[i][1] += h.queryStart
	}

	target := align.NewRecord(h.targetName, h.targetLen)
	target.SetSegment(h.targetStart, degap(h.targetSeq))
	target.Annotations = map[string]string{
		"hmm_name":        h.hmmName,
		"hmm_description": h.hmmDesc,
	}

	query := align.NewRecord(meta.Query, h.queryLen)
	query.SetSegment(h.queryStart, degap(h.querySeq))

	tracks := []struct {
		rec   *align.Record
		key   string
		text  []byte
		strip byte
	}{
		{query, "Consensus", h.queryCons, '-'},
		{query, "ss_pred", h.querySS, '-'},
		{target, "Consensus", h.targetCons, '-'},
		{target, "ss_pred", h.targetSS, '-'},
		{target, "ss_dssp", h.targetDSSP, '-'},
		{target, "Confidence", h.confidence, ' '},
	}
	var start int
	for _, tr := range tracks {
		if tr.rec == query {
			start = h.queryStart
		} else {
			start = h.targetStart
		}
		padded, err := h.padTrack(tr.text, tr.strip, start, tr.rec.Length)
		if err != nil {
			return nil, err
		}
		tr.rec.LetterAnnotations[tr.key] = padded
	}

	return &align.Alignment{
		Records:     []*align.Record{target, query},
		Coordinates: coords,
		Annotations: h.annotations,
		ColumnAnnotations: map[string]string{
			"column score": string(h.columnScore),
		},
	}, nil
}

// padTrack removes the characters a track carries for gapped columns and
// pads it with blanks on both sides so its length matches the sequence's
// declared total length.
func (h *hitAcc) padTrack(track []byte, strip byte, start, total int) (string, error) {
	kept := track[:0:0]
	for _, b := range track {
		if b != strip {
			kept = append(kept, b)
		}
	}
	if start+len(kept) > total {
		return "", inconsistentf("",
			"An annotation track of hit '%s' overruns its sequence "+
				"(%d > %d).",
			h.hmmName, start+len(kept), total)
	}

	padded := make([]byte, total)
	for i := range padded {
		padded[i] = ' '
	}
	copy(padded[start:], kept)
	return string(padded), nil
}

func degap(gapped []byte) []seq.Residue {
	residues := make([]seq.Residue, 0, len(gapped))
	for _, b := range gapped {
		if b != '-' {
			residues = append(residues, seq.Residue(b))
		}
	}
	return residues
}
