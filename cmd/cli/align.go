package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/himanishpuri/NoteAlign/pkg/logger"
	"github.com/himanishpuri/NoteAlign/pkg/models"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func handleAlign(args []string) {
	c := newCommonFlags("align")
	from := c.fs.Int("from", 1, "First recording id")
	to := c.fs.Int("to", 50, "Last recording id")
	all := c.fs.Bool("all", false, "Align every recording found in the dataset")
	noProgress := c.fs.Bool("no-progress", false, "Disable the progress bar")
	c.parse(args)

	ids := dataset.IDRange(*from, *to)
	if *all {
		var err error
		ids, err = c.layout().Discover()
		if err != nil {
			fail("Failed to scan dataset: %v", err)
		}
	}
	if len(ids) == 0 {
		fail("No recordings to align")
	}

	fmt.Println("\n🔧 Initializing service...")
	svc, err := c.createService()
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	fmt.Printf("🎼 Aligning %d recording(s)...\n\n", len(ids))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var p *mpb.Progress
	var bar *mpb.Bar
	if !*noProgress {
		// Log lines go to stderr so they do not tear the bar.
		logger.SetOutput(os.Stderr)
		p = mpb.New(mpb.WithWidth(64))
		bar = p.AddBar(int64(len(ids)),
			mpb.PrependDecorators(
				decor.Name("Aligning: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}

	var outcomes []models.RecordingOutcome
	run, err := svc.AlignDataset(ctx, ids, func(o models.RecordingOutcome) {
		outcomes = append(outcomes, o)
		if bar != nil {
			bar.EwmaIncrement(msDuration(o.DurationMs))
		}
	})
	if p != nil {
		if run == nil {
			bar.Abort(true)
		}
		p.Wait()
		logger.SetOutput(os.Stdout)
	}
	if run == nil {
		fail("Alignment failed: %v", err)
	}
	if err != nil {
		fmt.Printf("\n⚠️  Interrupted: %v\n", err)
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].RecordingID < outcomes[j].RecordingID })
	printOutcomes(outcomes, false)

	fmt.Printf("\n✅ Run %s finished\n", run.ID)
	fmt.Printf("   Aligned:    %d\n", run.Succeeded)
	fmt.Printf("   Failed:     %d\n", run.Failed)
	fmt.Printf("   Unresolved: %d recording(s)\n", run.Unresolved)
	if run.Failed > 0 {
		os.Exit(1)
	}
}

func parseIDArg(fs *flag.FlagSet, usage string) int {
	if fs.NArg() < 1 {
		fmt.Println("Usage: " + usage)
		os.Exit(1)
	}
	id, err := dataset.ParseID(fs.Arg(0))
	if err != nil {
		fail("%v", err)
	}
	return id
}

func handleAlignOne(args []string) {
	c := newCommonFlags("align-one")
	c.parse(args)
	id := parseIDArg(c.fs, "notealign align-one [options] <id>")

	svc, err := c.createService()
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	outcome, err := svc.AlignRecording(context.Background(), id)
	if err != nil {
		fail("Failed to align %s: %v", dataset.FormatID(id), err)
	}

	fmt.Printf("\n✅ Aligned recording %s\n", dataset.FormatID(id))
	fmt.Printf("   Output:   %s\n", outcome.OutputPath)
	fmt.Printf("   Phonemes: %d (%d exact, %d non-voiced)\n", outcome.Phonemes, outcome.ExactMatches, outcome.NonVoiced)
	fmt.Printf("   Cost:     %.3f\n", outcome.Cost)
	if outcome.NearMisses > 0 {
		fmt.Printf("   Near-miss lyrics: %d\n", outcome.NearMisses)
	}
	if outcome.Diagnostic != nil {
		fmt.Printf("⚠️  %d phoneme(s) left at note 0, first at %s (%s)\n",
			outcome.Diagnostic.Count, label.FormatTime(outcome.Diagnostic.Start), outcome.Diagnostic.Lyrics)
	}
}

func readInputs(layout dataset.Layout, id int) ([]align.Phoneme, []align.Note) {
	pf, err := os.Open(layout.MonoLabel(id))
	if err != nil {
		fail("Failed to open mono label: %v", err)
	}
	defer pf.Close()
	phonemes, err := label.ReadPhonemes(pf)
	if err != nil {
		fail("Failed to parse %s: %v", layout.MonoLabel(id), err)
	}

	nf, err := os.Open(layout.NoteLabel(id))
	if err != nil {
		fail("Failed to open note label: %v", err)
	}
	defer nf.Close()
	notes, err := label.ReadNotes(nf)
	if err != nil {
		fail("Failed to parse %s: %v", layout.NoteLabel(id), err)
	}
	return phonemes, notes
}

// handleMatrix prints the cost matrix and backtrace for one recording
// without writing anything.
func handleMatrix(args []string) {
	c := newCommonFlags("matrix")
	trace := c.fs.Bool("trace", false, "Also print the backtrace steps")
	c.parse(args)
	id := parseIDArg(c.fs, "notealign matrix [options] [--trace] <id>")

	cfg := c.config()
	phonemes, notes := readInputs(cfg.Layout, id)

	res, cm := align.AlignWithMatrix(phonemes, notes, cfg.Params)
	fmt.Print(cm.Format(phonemes, notes))
	fmt.Printf("\nTotal cost: %.3f\n", cm.Total())

	if *trace {
		_, steps := align.BacktraceTrace(cm, phonemes, notes)
		rows := make([][]string, 0, len(steps))
		for _, st := range steps {
			rows = append(rows, []string{strconv.Itoa(st.X), strconv.Itoa(st.Y), st.Branch.String()})
		}
		fmt.Println()
		fmt.Println(renderTable([]string{"X", "Y", "Branch"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
	}

	rows := make([][]string, 0, len(res.Labels))
	for i, l := range res.Labels {
		mark := ""
		if res.Assignments[i].ExactMatch {
			mark = "exact"
		} else if !res.Assignments[i].Assigned {
			mark = "fallback"
		}
		rows = append(rows, []string{label.FormatTime(l.Start), l.Lyrics, strconv.Itoa(l.NoteNumber), mark})
	}
	fmt.Println()
	fmt.Println(renderTable([]string{"Start", "Lyrics", "Note", ""}, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
}
