// hhrdump prints the contents of an hhr report produced by hhsearch or
// hhblits: the run metadata, the hit list, and (on request) the assembled
// pairwise alignments with their annotations.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/NewLimit/biopython/align"
	"github.com/NewLimit/biopython/hhr"
)

var (
	flagAlignments bool
	flagHit        int
)

var rootCmd = &cobra.Command{
	Use:   "hhrdump [flags] <report.hhr>",
	Short: "dump the contents of an hhsearch/hhblits report",
	Long: `hhrdump reads an hhr report (plain, gzipped, or '-' for stdin) and
prints its run metadata and hit list. With --alignments or --hit, the
alignment blocks are assembled and printed as well, one hit at a time.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fh, err := xopen.Ropen(args[0])
		checkError(err)
		defer fh.Close()

		r, err := hhr.NewReader(fh)
		checkError(err)

		printMeta(r.Meta)
		printHitList(r.Hits)
		if !flagAlignments && flagHit == 0 {
			return
		}

		num := 0
		for {
			al, err := r.Read()
			if err == io.EOF {
				break
			}
			checkError(err)
			num++
			if flagHit != 0 && num != flagHit {
				continue
			}
			printAlignment(num, al)
		}
		if flagHit != 0 && flagHit > num {
			checkError(fmt.Errorf("No hit %d: the report has %d hits.",
				flagHit, num))
		}
	},
}

func init() {
	log.SetFlags(0)
	rootCmd.Flags().BoolVarP(&flagAlignments, "alignments", "a", false,
		"print the assembled alignment of every hit")
	rootCmd.Flags().IntVar(&flagHit, "hit", 0,
		"print only the alignment of the given hit (1-based)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func checkError(err error) {
	if err != nil {
		log.Fatalf("%s", err)
	}
}

func printMeta(m hhr.Meta) {
	fmt.Printf("Query         %s\n", m.Query)
	fmt.Printf("Match columns %d\n", m.MatchColumns)
	fmt.Printf("Sequences     %d out of %d\n", m.NumSeqs[0], m.NumSeqs[1])
	fmt.Printf("Neff          %v\n", m.Neff)
	fmt.Printf("Searched HMMs %d\n", m.SearchedHMMs)
	fmt.Printf("Date          %s\n", m.Rundate)
	fmt.Printf("Command       %s\n", m.CommandLine)
	fmt.Println()
}

func printHitList(hits []hhr.Hit) {
	fmt.Printf("%3s %-32s %6s %8s %8s %7s %5s %4s %-9s %-9s %s\n",
		"No", "Hit", "Prob", "E-value", "P-value", "Score", "SS", "Cols",
		"Query", "Template", "Total")
	for _, hit := range hits {
		fmt.Printf("%3d %-32s %6.3f %8.2g %8.2g %7.1f %5.1f %4d %4d-%-4d %4d-%-4d (%d)\n",
			hit.Num, hit.Name, hit.Prob, hit.EValue, hit.PValue,
			hit.ViterbiScore, hit.SSScore, hit.NumAlignedCols,
			hit.QueryStart, hit.QueryEnd,
			hit.TemplateStart, hit.TemplateEnd, hit.NumTemplateCols)
	}
}

func printAlignment(num int, al *align.Alignment) {
	target, query := al.Records[0], al.Records[1]
	fmt.Printf("\nNo %d: %s %s\n", num,
		target.Annotations["hmm_name"], target.Annotations["hmm_description"])

	keys := make([]string, 0, len(al.Annotations))
	for key := range al.Annotations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %s=%v", key, al.Annotations[key])
	}
	fmt.Println()

	tseq, err := al.Gapped(0)
	checkError(err)
	qseq, err := al.Gapped(1)
	checkError(err)
	fmt.Printf("T %-20s %4d %s %4d (%d)\n",
		target.Name, al.Coordinates[0][0]+1, tseq,
		al.Coordinates[len(al.Coordinates)-1][0], target.Length)
	fmt.Printf("Q %-20s %4d %s %4d (%d)\n",
		query.Name, al.Coordinates[0][1]+1, qseq,
		al.Coordinates[len(al.Coordinates)-1][1], query.Length)
	if score := al.ColumnAnnotations["column score"]; len(score) > 0 {
		fmt.Printf("  %-20s %4s %s\n", "", "", score)
	}
}
