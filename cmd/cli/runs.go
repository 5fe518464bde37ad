package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
)

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func runDuration(r models.Run) string {
	if r.FinishedAt.IsZero() {
		return "running"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func handleRuns(args []string) {
	c := newCommonFlags("runs")
	limit := c.fs.Int("limit", 20, "Number of runs to show")
	c.parse(args)

	svc, err := c.createService()
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	runs, err := svc.ListRuns()
	if err != nil {
		fail("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("\n📭 No runs recorded")
		return
	}
	if *limit > 0 && len(runs) > *limit {
		runs = runs[:*limit]
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			humanize.Time(r.StartedAt),
			runDuration(r),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Unresolved),
		})
	}
	fmt.Printf("\n📚 %d run(s):\n", len(runs))
	fmt.Println(renderTable(
		[]string{"Run", "Started", "Took", "Total", "Aligned", "Failed", "Unresolved"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

func handleShowRun(args []string) {
	c := newCommonFlags("show-run")
	all := c.fs.Bool("all", false, "List every recording, not only the ones needing attention")
	c.parse(args)
	if c.fs.NArg() < 1 {
		fmt.Println("Usage: notealign show-run [options] <run-id>")
		os.Exit(1)
	}

	svc, err := c.createService()
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	run, outcomes, err := svc.GetRun(c.fs.Arg(0))
	if errors.Is(err, notealign.ErrRunNotFound) {
		fail("Run not found: %s", c.fs.Arg(0))
	}
	if err != nil {
		fail("Failed to load run: %v", err)
	}

	fmt.Printf("\n🎼 Run %s\n", run.ID)
	fmt.Printf("   Started:  %s (%s)\n", run.StartedAt.Format(time.RFC3339), humanize.Time(run.StartedAt))
	fmt.Printf("   Took:     %s\n", runDuration(*run))
	fmt.Printf("   Params:   weight=%g time-distance=%t non-voiced=%s\n",
		run.Params.LyricMismatchWeight, run.Params.UseTimeDistance, strings.Join(run.Params.NonVoiced, ","))
	fmt.Printf("   Results:  %d aligned, %d failed, %d with unresolved notes\n", run.Succeeded, run.Failed, run.Unresolved)

	printOutcomes(outcomes, *all)
}

// printOutcomes renders a table of recordings. Unless all is set, cleanly
// aligned recordings are left out.
func printOutcomes(outcomes []models.RecordingOutcome, all bool) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		if !all && o.Status == models.StatusAligned {
			continue
		}
		detail := o.Error
		if o.Diagnostic != nil {
			detail = fmt.Sprintf("%d unresolved, first %s at %s",
				o.Diagnostic.Count, o.Diagnostic.Lyrics, label.FormatTime(o.Diagnostic.Start))
		}
		rows = append(rows, []string{
			dataset.FormatID(o.RecordingID),
			o.Status,
			strconv.Itoa(o.Phonemes),
			strconv.Itoa(o.ExactMatches),
			fmt.Sprintf("%.2f", o.Cost),
			msDuration(o.DurationMs).String(),
			detail,
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(renderTable(
		[]string{"ID", "Status", "Phonemes", "Exact", "Cost", "Took", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}
