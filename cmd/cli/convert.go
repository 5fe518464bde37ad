package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/sinsy"
	"github.com/himanishpuri/NoteAlign/pkg/utils"
)

func readFullContext(path string) []sinsy.Entry {
	f, err := os.Open(path)
	if err != nil {
		fail("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	entries, err := sinsy.ParseFullContext(f)
	if err != nil {
		fail("Failed to parse %s: %v", path, err)
	}
	return entries
}

// handleConvert turns a full-context label into the note label the aligner
// reads.
func handleConvert(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: notealign convert <fullcontext.lab> <out.txt>")
		os.Exit(1)
	}
	in, out := args[0], args[1]

	notes := sinsy.ToNoteLabels(readFullContext(in))

	var buf bytes.Buffer
	if err := label.WriteNotes(&buf, notes); err != nil {
		fail("Failed to format notes: %v", err)
	}
	if err := utils.WriteFileAtomic(out, buf.Bytes()); err != nil {
		fail("Failed to write %s: %v", out, err)
	}

	fmt.Printf("✅ Wrote %d note label(s) to %s\n", len(notes), out)
}

func handleHiFiSinger(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: notealign hifisinger <fullcontext.lab> <out.tsv>")
		os.Exit(1)
	}
	in, out := args[0], args[1]

	rows := sinsy.ToHiFiSinger(readFullContext(in))

	var buf bytes.Buffer
	if err := sinsy.WriteHiFiSinger(&buf, rows); err != nil {
		fail("Failed to format table: %v", err)
	}
	if err := utils.WriteFileAtomic(out, buf.Bytes()); err != nil {
		fail("Failed to write %s: %v", out, err)
	}

	fmt.Printf("✅ Wrote %d row(s) to %s\n", len(rows), out)
}
