package grading

import (
	"context"
	"testing"
)

func TestChoiceGrading(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Options: []string{"a", "b", "c"}, AnswerKey: "1", Points: 2}

	cases := []struct {
		name    string
		resp    any
		correct bool
	}{
		{"exact", 1, true},
		{"json float", float64(1), true},
		{"wrong", 2, false},
		{"unanswered sentinel", Unanswered, false},
		{"null", nil, false},
	}
	for _, tc := range cases {
		res, err := g.Grade(context.Background(), q, tc.resp)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if res.Correct != tc.correct {
			t.Errorf("%s: correct = %v, want %v", tc.name, res.Correct, tc.correct)
		}
		if tc.correct && res.Awarded != q.Points {
			t.Errorf("%s: awarded = %d, want %d", tc.name, res.Awarded, q.Points)
		}
	}
}

func TestChoiceGradingBadResponseType(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Options: []string{"a", "b"}, AnswerKey: "0", Points: 1}
	if _, err := g.Grade(context.Background(), q, []string{"a"}); err == nil {
		t.Fatal("want error for non-index response")
	}
}

func TestFreeTextGrading(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{AnswerKey: "Photosynthesis", Points: 1}

	for _, resp := range []string{"photosynthesis", "  Photosynthesis.  ", "photosynthesys"} {
		res, err := g.Grade(context.Background(), q, resp)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Correct {
			t.Errorf("%q should match within edit distance 1", resp)
		}
	}

	res, err := g.Grade(context.Background(), q, "osmosis")
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct {
		t.Error("osmosis must not match")
	}
}

func TestFreeTextStrictMode(t *testing.T) {
	g := NewDefaultGrader(WithMaxEditDistance(0))
	q := Q{AnswerKey: "mitosis", Points: 1}
	res, err := g.Grade(context.Background(), q, "mitosys")
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct {
		t.Error("misspelling must fail with zero edit allowance")
	}
}

func TestFreeTextUnansweredSentinel(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{AnswerKey: "gravity", Points: 1}
	res, err := g.Grade(context.Background(), q, Unanswered)
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct || res.Awarded != 0 {
		t.Errorf("unanswered must score zero, got %+v", res)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Hello,   World! ": "hello world",
		"A-B":                "ab",
		"":                   "",
	}
	for in, want := range cases {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q,%q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
