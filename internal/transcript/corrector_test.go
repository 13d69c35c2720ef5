package transcript_test

import (
	"strings"
	"testing"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/transcript"
)

func TestMatcher_PhoneticMatch(t *testing.T) {
	t.Parallel()

	m := transcript.NewMatcher()
	vocab := []string{"Krishna", "Arjuna", "dharma"}

	corrected, conf, matched := m.Match("krishner", vocab)
	if !matched {
		t.Fatalf("Match(%q): matched=false, want true", "krishner")
	}
	if corrected != "Krishna" {
		t.Errorf("Match(%q): corrected=%q, want %q", "krishner", corrected, "Krishna")
	}
	if conf < 0.7 {
		t.Errorf("Match(%q): confidence=%f, want >= 0.7", "krishner", conf)
	}
}

func TestMatcher_ExactTermNotRewritten(t *testing.T) {
	t.Parallel()

	m := transcript.NewMatcher()
	_, _, matched := m.Match("dharma", []string{"Krishna", "dharma"})
	if matched {
		t.Fatal("exact vocabulary term was reported as a correction")
	}
}

func TestMatcher_NoMatchLeavesWordAlone(t *testing.T) {
	t.Parallel()

	m := transcript.NewMatcher()
	corrected, conf, matched := m.Match("weather", []string{"Krishna", "Arjuna"})
	if matched {
		t.Fatalf("Match(%q) matched %q unexpectedly", "weather", corrected)
	}
	if corrected != "weather" || conf != 0 {
		t.Fatalf("unmatched word changed: corrected=%q conf=%f", corrected, conf)
	}
}

func TestCorrector_SingleWord(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(nil, nil)
	got, corrections := c.Correct("what does krishner teach about duty")
	if !strings.Contains(got, "Krishna") {
		t.Fatalf("Correct = %q, want Krishna substituted", got)
	}
	if len(corrections) != 1 || corrections[0].Original != "krishner" {
		t.Fatalf("corrections = %+v", corrections)
	}
}

func TestCorrector_MultiWordTerm(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(nil, nil)
	got, corrections := c.Correct("tell me about the bagavad geeta")
	if !strings.Contains(got, "Bhagavad Gita") {
		t.Fatalf("Correct = %q, want %q substituted", got, "Bhagavad Gita")
	}
	if len(corrections) == 0 {
		t.Fatal("no corrections recorded")
	}
}

func TestCorrector_PreservesPunctuation(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(nil, nil)
	got, _ := c.Correct("who is arjoona?")
	if !strings.Contains(got, "Arjuna?") {
		t.Fatalf("Correct = %q, want trailing question mark kept", got)
	}
}

func TestCorrector_CleanTextUnchanged(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(nil, nil)
	in := "what is the meaning of life"
	got, corrections := c.Correct(in)
	if got != in {
		t.Fatalf("Correct(%q) = %q, want unchanged", in, got)
	}
	if len(corrections) != 0 {
		t.Fatalf("corrections = %+v, want none", corrections)
	}
}

func TestCorrector_EmptyInput(t *testing.T) {
	t.Parallel()

	c := transcript.NewCorrector(nil, nil)
	if got, _ := c.Correct(""); got != "" {
		t.Fatalf("Correct(\"\") = %q", got)
	}
}
