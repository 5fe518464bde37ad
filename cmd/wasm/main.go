//go:build js && wasm
// +build js,wasm

package main

import (
	"bytes"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/label"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorMonoLabel
	ErrorNoteLabel
	ErrorFormat
	ErrorTooLarge
)

// alignLabels aligns two label texts in the browser.
// Args: monoText, noteText[, useTimeDistance]
// Returns: {error: number, data: {aligned, cost, unresolved} | string}
func alignLabels(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 arguments: monoText, noteText")
	}
	if args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "monoText must be a string")
	}
	if args[1].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "noteText must be a string")
	}

	params := align.DefaultParams()
	if len(args) > 2 {
		if args[2].Type() != js.TypeBoolean {
			return makeErrorResponse(ErrorInvalidArgs, "useTimeDistance must be a boolean")
		}
		params.UseTimeDistance = args[2].Bool()
	}

	phonemes, err := label.ReadPhonemes(strings.NewReader(args[0].String()))
	if err != nil {
		return makeErrorResponse(ErrorMonoLabel, fmt.Sprintf("Invalid mono label: %v", err))
	}
	notes, err := label.ReadNotes(strings.NewReader(args[1].String()))
	if err != nil {
		return makeErrorResponse(ErrorNoteLabel, fmt.Sprintf("Invalid note label: %v", err))
	}

	if err := align.CheckSize(len(phonemes), len(notes)); err != nil {
		return makeErrorResponse(ErrorTooLarge, err.Error())
	}

	res := align.Align(phonemes, notes, params)

	var buf bytes.Buffer
	if err := label.WriteAligned(&buf, res.Labels); err != nil {
		return makeErrorResponse(ErrorFormat, fmt.Sprintf("Failed to format labels: %v", err))
	}

	unresolved := js.Global().Get("Array").New()
	for i, idx := range res.Unresolved {
		unresolved.SetIndex(i, idx)
	}

	data := js.Global().Get("Object").New()
	data.Set("aligned", buf.String())
	data.Set("cost", res.Cost)
	data.Set("exactMatches", res.ExactMatches)
	data.Set("unresolved", unresolved)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 NoteAlign WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("alignLabels", js.FuncOf(alignLabels))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ NoteAlign WASM module loaded and ready")
	}

	<-done
}
