package hhr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TuftsBCB/seq"

	"github.com/NewLimit/biopython/align"
)

// The exact column headers of the hit list, one token each.
var hitListHeader = []string{
	"No", "Hit", "Prob", "E-value", "P-value", "Score", "SS",
	"Cols", "Query", "HMM", "Template", "HMM",
}

// A Reader reads the hits of one hhr report as pairwise alignments.
//
// A Reader is single use and strictly forward: hits come back in file order,
// one per call to Read, and the underlying stream is only consumed as far as
// the last hit returned. It is not safe to use from multiple goroutines.
type Reader struct {
	// Run metadata from the preamble of the file.
	Meta Meta

	// The hit list, in ranking order. Its length is the number of
	// alignments the rest of the file must contain.
	Hits []Hit

	buf     *bufio.Reader
	cur     *hitAcc
	counter int // hit separators seen so far
	sawDone bool
	err     error
}

// NewReader consumes the metadata preamble and the hit list from r and
// returns a Reader positioned at the first alignment block. The alignments
// themselves are not read until Read is called.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{buf: bufio.NewReader(r)}
	if err := rd.readMeta(); err != nil {
		return nil, err
	}
	if err := rd.readHitList(); err != nil {
		return nil, err
	}
	return rd, nil
}

// ReadAll reads every remaining alignment. The error is never io.EOF.
func (r *Reader) ReadAll() ([]*align.Alignment, error) {
	als := make([]*align.Alignment, 0, len(r.Hits))
	for {
		al, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		als = append(als, al)
	}
	return als, nil
}

// Read returns the next hit's alignment, consuming input up to (and
// including) the lines that complete it. After the last hit, Read verifies
// that exactly as many alignments were found as the hit list promised, and
// returns io.EOF.
func (r *Reader) Read() (*align.Alignment, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.Hits) == 0 {
		// An empty hit list means there is nothing further to consume.
		return nil, io.EOF
	}
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return r.finish()
		}
		if err != nil {
			r.err = err
			return nil, err
		}

		al, err := r.dispatch(line)
		if err != nil {
			r.err = err
			return nil, err
		}
		if al != nil {
			return al, nil
		}
	}
}

// finish closes out the final hit at end of stream. The last hit has no
// 'No' separator after it, so it is only complete once the input runs out.
func (r *Reader) finish() (*align.Alignment, error) {
	if r.cur != nil {
		al, err := r.cur.finalize(&r.Meta)
		r.cur = nil
		if err != nil {
			r.err = err
			return nil, err
		}
		return al, nil
	}
	if r.counter != len(r.Hits) {
		err := inconsistentf("", "Expected %d alignments, found %d.",
			len(r.Hits), r.counter)
		r.err = err
		return nil, err
	}
	r.err = io.EOF
	return nil, io.EOF
}

// dispatch routes one line of the alignment section by its tag. It returns
// a non-nil alignment when the line completed the previous hit.
func (r *Reader) dispatch(line string) (*align.Alignment, error) {
	trimmed := strings.TrimSpace(line)
	switch {
	case len(trimmed) == 0:
		return nil, nil
	case r.sawDone:
		return nil, structf(line,
			"Found additional data after 'Done!'; corrupt file?")
	case strings.HasPrefix(line, ">"):
		return nil, r.readHitHeader(line)
	case trimmed == "Done!":
		r.sawDone = true
		return nil, nil
	case strings.HasPrefix(line, " "):
		// Column score lines carry no tag, only the indentation that
		// aligns them under the sequence columns.
		if r.cur == nil {
			return nil, structf(line, "Column scores outside of a hit.")
		}
		r.cur.columnScore = append(r.cur.columnScore, trimmed...)
		return nil, nil
	case strings.HasPrefix(line, "No "):
		return r.readSeparator(line)
	case strings.HasPrefix(line, "Confidence"):
		if r.cur == nil {
			return nil, structf(line, "Confidence values outside of a hit.")
		}
		value := strings.TrimSpace(trimmed[len("Confidence"):])
		r.cur.confidence = append(r.cur.confidence, value...)
		return nil, nil
	}

	if r.cur == nil {
		return nil, structf(line, "Alignment data outside of a hit.")
	}
	h := r.cur
	switch {
	case strings.HasPrefix(line, "Q ss_pred "):
		return nil, appendLast(&h.querySS, line)
	case strings.HasPrefix(line, "Q Consensus "):
		al, err := readAligned(line)
		if err != nil {
			return nil, err
		}
		h.queryCons = append(h.queryCons, al.text...)
		return nil, nil
	case strings.HasPrefix(line, "Q "):
		al, err := readAligned(line)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(r.Meta.Query, al.name) {
			return nil, inconsistentf(line,
				"Alignment query '%s' does not match the run query '%s'.",
				al.name, r.Meta.Query)
		}
		if err := h.setQueryTotal(al.total, line); err != nil {
			return nil, err
		}
		if !h.queryStartSet {
			h.queryStart = al.start
			h.queryStartSet = true
		}
		h.querySeq = append(h.querySeq, al.text...)
		return nil, nil
	case strings.HasPrefix(line, "T ss_pred "):
		return nil, appendLast(&h.targetSS, line)
	case strings.HasPrefix(line, "T ss_dssp "):
		return nil, appendLast(&h.targetDSSP, line)
	case strings.HasPrefix(line, "T Consensus "):
		al, err := readAligned(line)
		if err != nil {
			return nil, err
		}
		h.targetCons = append(h.targetCons, al.text...)
		return nil, nil
	case strings.HasPrefix(line, "T "):
		al, err := readAligned(line)
		if err != nil {
			return nil, err
		}
		h.targetName = al.name
		if err := h.setTargetTotal(al.total, line); err != nil {
			return nil, err
		}
		if !h.targetStartSet {
			h.targetStart = al.start
			h.targetStartSet = true
		}
		h.targetSeq = append(h.targetSeq, al.text...)
		return nil, nil
	}
	return nil, structf(line, "Failed to parse line '%.30s...'", line)
}

// readSeparator handles a 'No <n>' line: it finalizes the hit accumulated so
// far (if any) and opens the n'th slot.
func (r *Reader) readSeparator(line string) (*align.Alignment, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return nil, structf(line, "Malformed hit separator.")
	}
	num, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, structf(line, "Malformed hit separator number '%s'.",
			fields[1])
	}
	if num != r.counter+1 {
		return nil, inconsistentf(line,
			"Hit alignments are numbered out of order: expected %d, got %d.",
			r.counter+1, num)
	}

	var out *align.Alignment
	if r.counter > 0 {
		if r.cur == nil {
			return nil, structf(line, "Hit separator with no hit before it.")
		}
		out, err = r.cur.finalize(&r.Meta)
		r.cur = nil
		if err != nil {
			return nil, err
		}
	}
	r.counter++
	return out, nil
}

// readHitHeader handles a '>name description' line and the statistics line
// that always follows it, opening a fresh accumulator for the hit.
func (r *Reader) readHitHeader(line string) error {
	name, desc, _ := splitKV(strings.TrimSpace(line[1:]))
	if len(name) == 0 {
		return structf(line, "Hit header with no template name.")
	}
	h := newHitAcc(name, desc)

	stats, err := r.readLine()
	if err == io.EOF {
		return truncatedf("Input ends amid the header of hit '%s'.", name)
	}
	if err != nil {
		return err
	}
	for _, word := range strings.Fields(stats) {
		kv := strings.SplitN(word, "=", 2)
		if len(kv) != 2 {
			return structf(stats, "Malformed hit statistic '%s'.", word)
		}
		key, value := kv[0], kv[1]
		if key == "Aligned_cols" {
			// Redundant with the alignment coordinates.
			continue
		}
		if key == "Identities" {
			value = strings.TrimSuffix(value, "%")
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return structf(stats, "Malformed hit statistic value '%s'.", word)
		}
		h.annotations[key] = f
	}

	r.cur = h
	return nil
}

// readMeta consumes the key/value preamble, which runs up to the first
// blank line.
func (r *Reader) readMeta() error {
	for {
		line, err := r.readLine()
		if err == io.EOF {
			// The hit list header was never reached; readHitList reports
			// the truncation.
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			return nil
		}

		key, value, ok := splitKV(line)
		if !ok {
			return structf(line, "Metadata line with no value.")
		}
		switch key {
		case "Query":
			r.Meta.Query = value
		case "Match_columns":
			if r.Meta.MatchColumns, err = strconv.Atoi(value); err != nil {
				return structf(line, "Malformed Match_columns: %s.", err)
			}
		case "No_of_seqs":
			parts := strings.Split(value, " out of ")
			if len(parts) != 2 {
				return structf(line, "Expected '{shown} out of {searched}'.")
			}
			if r.Meta.NumSeqs[0], err = strconv.Atoi(parts[0]); err != nil {
				return structf(line, "Malformed No_of_seqs: %s.", err)
			}
			if r.Meta.NumSeqs[1], err = strconv.Atoi(parts[1]); err != nil {
				return structf(line, "Malformed No_of_seqs: %s.", err)
			}
		case "Neff":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return structf(line, "Malformed Neff: %s.", err)
			}
			r.Meta.Neff = seq.Prob(f)
		case "Template_Neff":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return structf(line, "Malformed Template_Neff: %s.", err)
			}
			r.Meta.TemplateNeff = seq.Prob(f)
		case "Searched_HMMs":
			if r.Meta.SearchedHMMs, err = strconv.Atoi(value); err != nil {
				return structf(line, "Malformed Searched_HMMs: %s.", err)
			}
		case "Date":
			r.Meta.Rundate = value
		case "Command":
			r.Meta.CommandLine = value
		default:
			return structf(line, "Unknown metadata key '%s'.", key)
		}
	}
}

// readHitList consumes the fixed hit list header and the rows that follow,
// up to the first blank line (or end of input).
func (r *Reader) readHitList() error {
	line, err := r.readLine()
	if err == io.EOF {
		return truncatedf("Input ends before the hit list.")
	}
	if err != nil {
		return err
	}
	fields := strings.Fields(line)
	if len(fields) != len(hitListHeader) {
		return structf(line, "Malformed hit list header.")
	}
	for i, want := range hitListHeader {
		if fields[i] != want {
			return structf(line, "Malformed hit list header.")
		}
	}

	for {
		line, err := r.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			return nil
		}
		hit, err := readHit(line, len(r.Hits)+1)
		if err != nil {
			return err
		}
		r.Hits = append(r.Hits, hit)
	}
}

// readLine returns the next line with trailing whitespace removed. Leading
// whitespace is kept: the alignment section distinguishes tags by it.
func (r *Reader) readLine() (string, error) {
	line, err := r.buf.ReadBytes('\n')
	if err == io.EOF && len(line) == 0 {
		return "", io.EOF
	}
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("Error reading hhr: %s", err)
	}
	return strings.TrimRight(string(line), " \t\r\n"), nil
}

// splitKV splits a line into its first whitespace separated token and the
// trimmed remainder.
func splitKV(line string) (key, value string, ok bool) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, "", false
	}
	return line[:i], strings.TrimSpace(line[i:]), true
}

// appendLast appends the last whitespace separated token of a secondary
// structure line to the given track.
func appendLast(track *[]byte, line string) error {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return structf(line, "Malformed secondary structure line.")
	}
	*track = append(*track, fields[2]...)
	return nil
}

// alignedLine is one 'Q name start seq end (total)' shaped line.
type alignedLine struct {
	name              string
	start, end, total int
	text              string
}

func readAligned(line string) (alignedLine, error) {
	var al alignedLine

	fields := strings.Fields(line)
	if len(fields) != 6 {
		return al, structf(line, "Expected 6 fields in an alignment line, "+
			"found %d.", len(fields))
	}
	al.name = fields[1]
	al.text = fields[3]

	start, err := strconv.Atoi(fields[2])
	if err != nil {
		return al, structf(line, "Malformed start offset '%s'.", fields[2])
	}
	al.start = start - 1
	if al.end, err = strconv.Atoi(fields[4]); err != nil {
		return al, structf(line, "Malformed end offset '%s'.", fields[4])
	}
	if al.total, err = readTotal(fields[5]); err != nil {
		return al, structf(line, "Malformed sequence length '%s'.", fields[5])
	}
	return al, nil
}
