package normalize

import (
	"strings"
	"testing"
)

func TestNormalizeDropsCaptions(t *testing.T) {
	n := New(25)
	raw := "Figure 1.1 | caption\n\nReal content sentence one. Real content sentence two."
	got := n.Normalize(raw)
	if strings.Contains(got, "Figure") {
		t.Fatalf("caption survived normalization: %q", got)
	}
	if !strings.Contains(got, "Real content sentence one.") {
		t.Fatalf("content was dropped: %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := New(0)
	for _, raw := range []string{"", "   ", "\n\n\n"} {
		if got := n.Normalize(raw); got != "" {
			t.Fatalf("Normalize(%q) = %q, want empty", raw, got)
		}
	}
}

func TestNormalizeDropsShortLines(t *testing.T) {
	n := New(25)
	raw := "Menu\nA long sentence describing observed warming over the last century.\nok"
	got := n.Normalize(raw)
	if strings.Contains(got, "Menu") || strings.Contains(got, "\nok") {
		t.Fatalf("short lines survived: %q", got)
	}
	if !strings.Contains(got, "observed warming") {
		t.Fatalf("content was dropped: %q", got)
	}
}

func TestNormalizePageArtifacts(t *testing.T) {
	n := New(25)
	raw := strings.Join([]string{
		"=== Page 3 ===",
		"42",
		"Page 17",
		"Summary for Policymakers",
		"Global surface temperature has risen faster since 1970 than in any other period.",
	}, "\n")
	got := n.Normalize(raw)
	want := "Global surface temperature has risen faster since 1970 than in any other period."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeKeepsParagraphBreaks(t *testing.T) {
	n := New(10)
	raw := "First paragraph with enough length.\n\n\n\nSecond paragraph with enough length."
	got := n.Normalize(raw)
	if !strings.Contains(got, "\n\n") {
		t.Fatalf("paragraph break lost: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("newline runs not collapsed: %q", got)
	}
}

func TestNormalizeDropsAuthorLists(t *testing.T) {
	n := New(10)
	raw := "J. Smith, A. Jones, B. Brown, C. Davis\nObserved changes are attributable to human influence."
	got := n.Normalize(raw)
	if strings.Contains(got, "Smith") {
		t.Fatalf("author roster survived: %q", got)
	}
	if !strings.Contains(got, "attributable") {
		t.Fatalf("content was dropped: %q", got)
	}
}

func TestNormalizeDropsLayoutArtifacts(t *testing.T) {
	n := New(10)
	raw := "|----|----|----|----|\nSea level rise has accelerated in recent decades."
	got := n.Normalize(raw)
	if strings.Contains(got, "|----") {
		t.Fatalf("table rule survived: %q", got)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := New(25)
	raw := "IPCC AR6 WGI\nHuman influence has warmed the atmosphere, ocean and land since pre-industrial times.\n\n1\n"
	a := n.Normalize(raw)
	b := n.Normalize(raw)
	if a != b {
		t.Fatalf("normalization not deterministic: %q vs %q", a, b)
	}
}
