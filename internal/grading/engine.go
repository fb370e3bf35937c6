package grading

import (
	"context"
	"errors"
	"strconv"
)

// Q is the minimal view of a quiz question needed for grading. Choice
// questions carry options and an answer key holding the correct option index;
// free-text questions have no options and a textual key.
type Q struct {
	Options   []string
	AnswerKey string
	Points    int
}

// Result is the outcome of grading one response.
type Result struct {
	Correct   bool
	Awarded   int
	MaxPoints int
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response any) (Result, error)
}

// Grader routes a question to the right strategy by its shape.
type Grader interface {
	Grade(ctx context.Context, q Q, response any) (Result, error)
}

type defaultGrader struct {
	choice   Strategy
	freeText Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response any) (Result, error) {
	if len(q.Options) > 0 {
		return g.choice.Grade(ctx, q, response)
	}
	return g.freeText.Grade(ctx, q, response)
}

type Option func(*config)

type config struct {
	MaxEditDistance int // fuzz allowance for free-text answers
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		choice:   choiceStrategy{},
		freeText: freeTextStrategy{maxEdit: cfg.MaxEditDistance},
	}
}

// Unanswered is the sentinel index for a skipped question.
const Unanswered = -1

type choiceStrategy struct{}

func (choiceStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points}
	idx, ok := responseIndex(response)
	if !ok {
		return res, errors.New("response must be an option index")
	}
	if idx == Unanswered {
		return res, nil
	}
	key, err := strconv.Atoi(q.AnswerKey)
	if err != nil {
		return res, errors.New("answer key is not an option index")
	}
	if idx == key {
		res.Correct = true
		res.Awarded = q.Points
	}
	return res, nil
}

type freeTextStrategy struct{ maxEdit int }

func (s freeTextStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	res := Result{MaxPoints: q.Points}
	text, ok := response.(string)
	if !ok {
		if _, unansweredInt := responseIndex(response); unansweredInt {
			return res, nil // index sentinel against a text question: score zero
		}
		return res, errors.New("response must be a string")
	}
	if textMatches(text, q.AnswerKey, s.maxEdit) {
		res.Correct = true
		res.Awarded = q.Points
	}
	return res, nil
}

// responseIndex coerces the wire representations of a choice answer. JSON
// numbers decode as float64; stores may hand back int.
func responseIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case nil:
		return Unanswered, true
	default:
		return 0, false
	}
}
