package hhr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TuftsBCB/seq"
)

// Meta corresponds to the run information in the preamble of an hhr file.
type Meta struct {
	// The query identifier, verbatim from the 'Query' line. May include a
	// free-form description after the identifier itself.
	Query string

	// The number of match columns in the query HMM. This is also the total
	// length of the query sequence in every hit alignment.
	MatchColumns int

	// The 'A out of B' pair from the 'No_of_seqs' line: the number of
	// sequences shown and the number of sequences searched.
	NumSeqs [2]int

	// Diversity of the query alignment.
	Neff seq.Prob

	// Diversity of the template alignment, if reported.
	TemplateNeff seq.Prob

	// Number of HMMs searched.
	SearchedHMMs int

	// Date the search was run.
	// e.g., 'Sat Nov 10 21:31:12 2012'
	Rundate string

	// Command that was used to generate the file.
	CommandLine string
}

// Hit corresponds to a single row in the hit list of an hhr file.
//
// Only Num takes part in validating the rest of the file (rows must be
// numbered contiguously from 1, and the row count fixes how many alignments
// follow); everything else is carried for callers that want the ranking
// without assembling alignments.
type Hit struct {
	Num             int
	Name            string
	Prob            float64
	EValue          float64
	PValue          float64
	ViterbiScore    float64
	SSScore         float64
	NumAlignedCols  int
	QueryStart      int
	QueryEnd        int
	TemplateStart   int
	TemplateEnd     int
	NumTemplateCols int
}

// An ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// ErrStructure indicates a line or section whose shape is not valid hhr:
	// an unknown metadata key, a malformed hit list header, or a line that
	// matches no known tag.
	ErrStructure ErrorKind = iota

	// ErrConsistency indicates well-shaped input whose parts contradict each
	// other: out-of-order numbering, mismatched track lengths, disagreeing
	// totals, or data after the 'Done!' sentinel.
	ErrConsistency

	// ErrTruncated indicates input that ended before a required section
	// completed.
	ErrTruncated
)

// A ParseError describes a fatal problem with an hhr input stream. All
// parse errors are fatal: once a Reader has returned one, every subsequent
// call returns the same error.
type ParseError struct {
	Kind ErrorKind
	Line string // the offending line, when one exists
	Msg  string
}

func (e *ParseError) Error() string {
	if len(e.Line) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (at '%s')", e.Msg, e.Line)
}

func structf(line, format string, v ...interface{}) *ParseError {
	return &ParseError{ErrStructure, line, fmt.Sprintf(format, v...)}
}

func inconsistentf(line, format string, v ...interface{}) *ParseError {
	return &ParseError{ErrConsistency, line, fmt.Sprintf(format, v...)}
}

func truncatedf(format string, v ...interface{}) *ParseError {
	return &ParseError{ErrTruncated, "", fmt.Sprintf(format, v...)}
}

// readHit parses one hit list row. The leading row number must equal `want`.
//
// The row format is a mix of one variable width field (the hit name plus
// description, 32 characters) and whitespace separated numeric columns.
func readHit(line string, want int) (Hit, error) {
	hit := Hit{}

	numRest := strings.SplitN(line, " ", 2)
	if len(numRest) != 2 {
		return hit, structf(line, "Malformed hit list row.")
	}
	num, err := strconv.Atoi(numRest[0])
	if err != nil {
		return hit, structf(line, "Malformed hit number '%s': %s.",
			numRest[0], err)
	}
	hit.Num = num
	if num != want {
		return hit, inconsistentf(line,
			"Hit list rows are numbered out of order: expected %d, got %d.",
			want, num)
	}

	// The hit name is the only variable length field, and it is padded to
	// 32 characters. Everything after it splits on whitespace.
	rest := numRest[1]
	if len(rest) < 33 {
		return hit, structf(line, "Hit list row is too short.")
	}
	hit.Name = strings.TrimSpace(rest[:32])

	fields := strings.Fields(rest[32:])
	if len(fields) != 9 {
		return hit, structf(line,
			"Expected 9 columns after the hit name, found %d.", len(fields))
	}
	if hit.Prob, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return hit, structf(line, "Malformed probability '%s'.", fields[0])
	}
	hit.Prob /= 100.0
	if hit.EValue, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return hit, structf(line, "Malformed E-value '%s'.", fields[1])
	}
	if hit.PValue, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return hit, structf(line, "Malformed P-value '%s'.", fields[2])
	}
	if hit.ViterbiScore, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return hit, structf(line, "Malformed score '%s'.", fields[3])
	}
	if hit.SSScore, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return hit, structf(line, "Malformed SS score '%s'.", fields[4])
	}
	if hit.NumAlignedCols, err = strconv.Atoi(fields[5]); err != nil {
		return hit, structf(line, "Malformed column count '%s'.", fields[5])
	}

	if hit.QueryStart, hit.QueryEnd, err = readRange(fields[6]); err != nil {
		return hit, structf(line, "Malformed query range '%s'.", fields[6])
	}
	if hit.TemplateStart, hit.TemplateEnd, err = readRange(fields[7]); err != nil {
		return hit, structf(line, "Malformed template range '%s'.", fields[7])
	}

	// The final column is the template length, e.g. '(327)'.
	hit.NumTemplateCols, err = readTotal(fields[8])
	if err != nil {
		return hit, structf(line, "Malformed template length '%s'.", fields[8])
	}
	return hit, nil
}

// readRange parses a '{start}-{end}' pair of integers.
func readRange(field string) (start, end int, err error) {
	parts := strings.Split(field, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected '{start}-{end}'")
	}
	if start, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, err
	}
	if end, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// readTotal parses a parenthesized sequence length like '(327)'.
func readTotal(field string) (int, error) {
	if !strings.HasPrefix(field, "(") || !strings.HasSuffix(field, ")") {
		return 0, fmt.Errorf("expected a parenthesized length, got '%s'", field)
	}
	return strconv.Atoi(field[1 : len(field)-1])
}
