package app

import (
	"strings"

	"lairn-cli/internal/domain"
)

// Runner holds the ephemeral capture state for the question currently on
// screen: a selected option for mcq, a text buffer for short-answer. It is
// discarded and rebuilt whenever the current question changes, so selection
// state never carries over between questions.
//
// Locked state is derived purely from ledger presence for the question ID,
// not from a separate flag, so "submitted" can never diverge from "has a
// server-confirmed record".
type Runner struct {
	question domain.Question
	answered func(questionID string) bool

	selected int
	text     string
}

// NewRunner builds capture state for one question. answered reports whether
// the ledger holds a record for a question ID.
func NewRunner(question domain.Question, answered func(questionID string) bool) *Runner {
	return &Runner{question: question, answered: answered, selected: -1}
}

// Question returns the question this runner captures input for.
func (r *Runner) Question() domain.Question {
	return r.question
}

// Locked reports whether capture is read-only because a graded record exists.
func (r *Runner) Locked() bool {
	return r.answered(r.question.ID)
}

// Select sets the chosen option for an mcq question.
func (r *Runner) Select(index int) error {
	if r.Locked() {
		return domain.ErrAlreadyAnswered
	}
	if r.question.Type != domain.TypeMCQ {
		return domain.ErrAnswerTypeMismatch
	}
	if index < 0 || index >= len(r.question.Options) {
		return domain.ErrOptionOutOfRange
	}
	r.selected = index
	return nil
}

// Selected returns the chosen option index, or -1 when none is chosen.
func (r *Runner) Selected() int {
	return r.selected
}

// SetText replaces the short-answer buffer.
func (r *Runner) SetText(text string) error {
	if r.Locked() {
		return domain.ErrAlreadyAnswered
	}
	if r.question.Type != domain.TypeShortAnswer {
		return domain.ErrAnswerTypeMismatch
	}
	r.text = text
	return nil
}

// Text returns the short-answer buffer.
func (r *Runner) Text() string {
	return r.text
}

// Input validates the captured state and produces the submission payload.
// Invalid captures (no selection, blank text) never reach the controller.
func (r *Runner) Input() (domain.AnswerInput, error) {
	if r.Locked() {
		return domain.AnswerInput{}, domain.ErrAlreadyAnswered
	}
	switch r.question.Type {
	case domain.TypeMCQ:
		if r.selected < 0 {
			return domain.AnswerInput{}, domain.ErrNoSelection
		}
		index := r.selected
		return domain.AnswerInput{OptionIndex: &index}, nil
	case domain.TypeShortAnswer:
		trimmed := strings.TrimSpace(r.text)
		if trimmed == "" {
			return domain.AnswerInput{}, domain.ErrEmptyAnswer
		}
		return domain.AnswerInput{Text: trimmed}, nil
	default:
		return domain.AnswerInput{}, domain.ErrAnswerTypeMismatch
	}
}
