package main

import (
	"strings"
	"testing"
)

func TestSplitList(t *testing.T) {
	got := splitList(" pau, br ,,sil")
	want := []string{"pau", "br", "sil"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %q at %d, got %q", want[i], i, got[i])
		}
	}

	if out := splitList(""); len(out) != 0 {
		t.Errorf("Expected empty list, got %v", out)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("NOTEALIGN_TEST_VALUE", "set")
	if v := getEnvOrDefault("NOTEALIGN_TEST_VALUE", "fallback"); v != "set" {
		t.Errorf("Expected set, got %s", v)
	}
	if v := getEnvOrDefault("NOTEALIGN_TEST_MISSING", "fallback"); v != "fallback" {
		t.Errorf("Expected fallback, got %s", v)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status"},
		[][]string{{"01", "aligned"}, {"02"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"ID", "Status", "01", "aligned", "02"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected table to contain %q, got:\n%s", want, out)
		}
	}

	if out := renderTable(nil, nil, nil); out != "" {
		t.Errorf("Expected empty output without headers, got %q", out)
	}
}
