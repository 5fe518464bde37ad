package sinsy

import (
	"bytes"
	"strings"
	"testing"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `0 1000000 xx@xx^xx-sil+k=a/A:xx/E:xx]xx
1000000 1500000 xx@sil^k-k+a=sil/A:xx/E:C4]xx
1500000 3000000 sil@k^a-a+sil=xx/A:xx/E:Eb4]xx
3000000 3010000 k@a^sil-pau+xx=xx/A:xx/E:xx]xx
3010000 4000000 a@sil^pau-sil+xx=xx/A:xx/E:xx]xx
`

func TestParseNoteName(t *testing.T) {
	cases := map[string]int{
		"xx":  0,
		"C0":  24,
		"C4":  72,
		"D4":  74,
		"Eb4": 75,
		"A4":  81,
		"B3":  71,
		"Bb5": 94,
	}
	for in, want := range cases {
		got, err := ParseNoteName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseNoteName("H4")
	assert.Error(t, err)
	_, err = ParseNoteName("")
	assert.Error(t, err)
}

func TestParseFullContext(t *testing.T) {
	entries, err := ParseFullContext(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 5)

	assert.Equal(t, Entry{Start: 0, End: 1000000, Phoneme: "sil", NoteName: "xx", NoteNumber: 0}, entries[0])
	assert.Equal(t, "k", entries[1].Phoneme)
	assert.Equal(t, 72, entries[1].NoteNumber)
	assert.Equal(t, "a", entries[2].Phoneme)
	assert.Equal(t, 75, entries[2].NoteNumber)
	assert.Equal(t, "pau", entries[3].Phoneme)
}

func TestParseFullContext_Malformed(t *testing.T) {
	_, err := ParseFullContext(strings.NewReader("0 10 garbage\n"))
	assert.ErrorIs(t, err, label.ErrMalformedInput)
}

func TestToNoteLabels(t *testing.T) {
	entries, err := ParseFullContext(strings.NewReader(sample))
	require.NoError(t, err)

	notes := ToNoteLabels(entries)

	require.Len(t, notes, 4, "the pau following a pau is dropped")
	assert.Equal(t, align.Note{Start: 0, Lyrics: "pau", NoteNumber: 0}, notes[0])
	assert.InDelta(t, 0.1, notes[1].Start, 1e-12)
	assert.Equal(t, "k", notes[1].Lyrics)
	assert.Equal(t, 72, notes[1].NoteNumber)
	assert.Equal(t, "a", notes[2].Lyrics)
	assert.Equal(t, "pau", notes[3].Lyrics)
	assert.InDelta(t, 0.3, notes[3].Start, 1e-12)

	var buf bytes.Buffer
	require.NoError(t, label.WriteNotes(&buf, notes))
	assert.Equal(t, "0,pau,0\n0.1,k,72\n0.15,a,75\n0.3,pau,0", buf.String())
	back, err := label.ReadNotes(&buf)
	require.NoError(t, err)
	assert.Len(t, back, 4)
}

func TestToHiFiSinger(t *testing.T) {
	entries, err := ParseFullContext(strings.NewReader(sample))
	require.NoError(t, err)

	rows := ToHiFiSinger(entries)
	require.Len(t, rows, 5)

	assert.Equal(t, HiFiSingerRow{DurationMs: 100, Text: "<X>", Note: 0}, rows[0])
	assert.Equal(t, HiFiSingerRow{DurationMs: 50, Text: "k", Note: 72}, rows[1])
	assert.Equal(t, HiFiSingerRow{DurationMs: 150, Text: "a", Note: 75}, rows[2])
	// 1ms is padded to the minimum and the padding is taken from the next row.
	assert.Equal(t, HiFiSingerRow{DurationMs: 2, Text: "<X>", Note: 0}, rows[3])
	assert.Equal(t, HiFiSingerRow{DurationMs: 97, Text: "<X>", Note: 0}, rows[4])

	var buf bytes.Buffer
	require.NoError(t, WriteHiFiSinger(&buf, rows[:2]))
	assert.Equal(t, "Duration\tText\tNote\n100\t<X>\t0\n50\tk\t72", buf.String())
}

func TestToNoteLabels_TicksConvertExactly(t *testing.T) {
	// 3000000 * 1e-7 is 0.30000000000000004; dividing by the tick rate is not.
	entries := []Entry{
		{Start: 3000000, End: 3100000, Phoneme: "a", NoteName: "C4", NoteNumber: 72},
		{Start: 7000000, End: 7100000, Phoneme: "i", NoteName: "D4", NoteNumber: 74},
	}

	notes := ToNoteLabels(entries)

	require.Len(t, notes, 2)
	assert.Equal(t, 0.3, notes[0].Start)
	assert.Equal(t, 0.7, notes[1].Start)
}

func TestToHiFiSinger_CompensationInMilliseconds(t *testing.T) {
	// 1ms, 300ms, 300ms: only the row after the clamped one gives back 2ms.
	entries := []Entry{
		{Start: 0, End: 10000, Phoneme: "a", NoteNumber: 72},
		{Start: 10000, End: 3010000, Phoneme: "i", NoteNumber: 74},
		{Start: 3010000, End: 6010000, Phoneme: "u", NoteNumber: 76},
	}

	rows := ToHiFiSinger(entries)

	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0].DurationMs)
	assert.Equal(t, 298, rows[1].DurationMs)
	assert.Equal(t, 300, rows[2].DurationMs)
}
