package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/jp3-organiser/internal/journal"
	"github.com/franz/jp3-organiser/internal/library"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [operation-id]",
	Short: "Show recorded library operations",
	Long: `Show the operations recorded in the journal for this library, newest
first. Given an operation id, print that operation's full summary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of operations to show")
	historyCmd.Flags().Bool("all", false, "show operations for every library")
	historyCmd.Flags().Bool("summary", false, "show operation counts by kind instead")
}

func runHistory(cmd *cobra.Command, args []string) error {
	applyLogLevel()
	path := journalPath()
	if path == "" {
		return fmt.Errorf("journal disabled (--journal is empty): %w", util.ErrInvalidConfig)
	}
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	if len(args) == 1 {
		e, err := j.Get(args[0])
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("no operation %s in %s", args[0], path)
		}
		printEntry(e)
		return nil
	}

	root := journalKey(library.RootPath(libraryBase()))
	if all, _ := cmd.Flags().GetBool("all"); all {
		root = ""
	}
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		counts, err := j.CountByKind(root)
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("%-16s %d\n", k, counts[k])
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := j.Recent(root, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tWHEN\tOPERATION\tARGS\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.OK() {
			result = e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, humanize.Time(e.StartedAt), e.Kind, e.Args, result)
	}
	return nil
}

func printEntry(e *journal.Entry) {
	fmt.Printf("Operation: %s\n", e.ID)
	fmt.Printf("Kind:      %s\n", e.Kind)
	fmt.Printf("Library:   %s\n", e.Library)
	fmt.Printf("Args:      %s\n", e.Args)
	fmt.Printf("Started:   %s\n", e.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("Took:      %s\n", e.CompletedAt.Sub(e.StartedAt).Round(time.Millisecond))
	if e.OK() {
		fmt.Println("Result:    ok")
	} else {
		fmt.Printf("Result:    %s\n", e.Error)
	}
	if e.SummaryJSON != "" {
		fmt.Printf("Summary:   %s\n", e.SummaryJSON)
	}
}
