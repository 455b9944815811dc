package domain

import "errors"

var (
	// ErrNoSession is returned when an action requires an active session.
	ErrNoSession = errors.New("no active session")
	// ErrViewUnavailable is returned when a view cannot be selected in the current state.
	ErrViewUnavailable = errors.New("view unavailable")
	// ErrAlreadyAnswered indicates the question already has a graded record.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered indicates the current question has no graded record yet.
	ErrNotAnswered = errors.New("question not answered")
	// ErrSubmissionInFlight indicates a grading call for the question is still pending.
	ErrSubmissionInFlight = errors.New("submission in flight")
	// ErrStaleResponse indicates a response that resolved for a session that no longer exists.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrNoSelection indicates an mcq submit attempt with no option chosen.
	ErrNoSelection = errors.New("no option selected")
	// ErrEmptyAnswer indicates a short-answer submit attempt with blank text.
	ErrEmptyAnswer = errors.New("answer text is empty")
	// ErrOptionOutOfRange indicates a selected option index outside the question's options.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrAnswerTypeMismatch indicates an input whose shape does not fit the question type.
	ErrAnswerTypeMismatch = errors.New("answer does not match question type")
	// ErrNoTopics indicates a config with an empty topic set.
	ErrNoTopics = errors.New("at least one topic is required")
	// ErrInvalidConfig indicates a config value outside the accepted ranges.
	ErrInvalidConfig = errors.New("invalid quiz config")
)
