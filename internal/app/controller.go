package app

import (
	"context"
	"fmt"
	"sync"

	"lairn-cli/internal/domain"
)

// View identifies the active top-level screen.
type View string

const (
	ViewSetup   View = "setup"
	ViewQuiz    View = "quiz"
	ViewResults View = "results"
	ViewHistory View = "history"
)

// OpState tracks one asynchronous operation independently of the others.
type OpState int

const (
	OpIdle OpState = iota
	OpPending
	OpSucceeded
	OpFailed
)

// OpStatus is the observable status of a creation, submission, or summary fetch.
type OpStatus struct {
	State OpState
	Err   error
}

// QuizService is the mutating slice of the backend the controller drives.
type QuizService interface {
	CreateSession(ctx context.Context, cfg domain.QuizConfig) (domain.Session, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID string, input domain.AnswerInput) (domain.GradedAnswer, error)
}

// HistoryRepository serves summaries and session lists, usually through a
// cache layered over the API client. Invalidate drops cached reads after a
// restart or a newly created session.
type HistoryRepository interface {
	SessionSummary(ctx context.Context, sessionID string) (domain.Summary, error)
	ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error)
	Invalidate()
}

// Snapshot is an immutable view of controller state for rendering layers.
type Snapshot struct {
	View         View
	HasSession   bool
	SessionID    string
	Config       domain.QuizConfig
	Questions    []domain.Question
	CurrentIndex int
	Records      map[string]domain.AnswerRecord
	Creation     OpStatus
	Submission   OpStatus
	SummaryFetch OpStatus
	Summary      *domain.Summary
}

// CurrentQuestion returns the question at the current index.
func (s Snapshot) CurrentQuestion() (domain.Question, bool) {
	if !s.HasSession || s.CurrentIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Controller owns the session lifecycle: which view is active, the active
// session and its ledger, the current question pointer, and the status of
// each in-flight backend call. All mutating responses are committed under
// the lock with a staleness check, so a response resolving after a restart
// (or after a replacement session) is dropped instead of written into the
// wrong ledger.
type Controller struct {
	svc     QuizService
	history HistoryRepository

	mu          sync.RWMutex
	restarts    uint64
	view        View
	session     *domain.Session
	ledger      *Ledger
	runner      *Runner
	current     int
	inflight    map[string]struct{}
	creation    OpStatus
	submission  OpStatus
	summaryOp   OpStatus
	summary     *domain.Summary
	subscribers map[chan Snapshot]struct{}
}

func NewController(svc QuizService, history HistoryRepository) *Controller {
	return &Controller{
		svc:         svc,
		history:     history,
		view:        ViewSetup,
		ledger:      NewLedger(),
		inflight:    make(map[string]struct{}),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// StartSession asks the backend to create a session from cfg. On success the
// new session replaces any existing one, the ledger is reset, the pointer
// returns to question 0, and the view switches to Quiz. On failure the prior
// state is untouched and the view stays on Setup. A response resolving after
// a restart is discarded; when several creations race, whichever resolves
// last wins.
func (c *Controller) StartSession(ctx context.Context, cfg domain.QuizConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	generation := c.restarts
	c.creation = OpStatus{State: OpPending}
	c.broadcastLocked()
	c.mu.Unlock()

	session, err := c.svc.CreateSession(ctx, cfg)

	c.mu.Lock()
	defer func() {
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	if c.restarts != generation {
		return domain.ErrStaleResponse
	}
	if err != nil {
		c.creation = OpStatus{State: OpFailed, Err: err}
		return err
	}
	if len(session.Questions) == 0 {
		err = fmt.Errorf("create session: backend returned no questions")
		c.creation = OpStatus{State: OpFailed, Err: err}
		return err
	}

	c.session = &session
	c.ledger = NewLedger()
	c.current = 0
	c.runner = NewRunner(session.Questions[0], c.ledger.Has)
	c.inflight = make(map[string]struct{})
	c.view = ViewQuiz
	c.creation = OpStatus{State: OpSucceeded}
	c.submission = OpStatus{}
	c.summaryOp = OpStatus{}
	c.summary = nil
	c.history.Invalidate()
	return nil
}

// Submit grades the current question's input. The ledger is only written on
// success; a failed call leaves the question answerable for retry. While a
// grading call for a question is pending, further submits for it are
// rejected, and at most one record per question ever lands.
func (c *Controller) Submit(ctx context.Context, input domain.AnswerInput) (domain.GradedAnswer, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return domain.GradedAnswer{}, domain.ErrNoSession
	}
	if c.view != ViewQuiz {
		c.mu.Unlock()
		return domain.GradedAnswer{}, domain.ErrViewUnavailable
	}
	question := c.session.Questions[c.current]
	if !input.Matches(question.Type) {
		c.mu.Unlock()
		return domain.GradedAnswer{}, domain.ErrAnswerTypeMismatch
	}
	if input.OptionIndex != nil && (*input.OptionIndex < 0 || *input.OptionIndex >= len(question.Options)) {
		c.mu.Unlock()
		return domain.GradedAnswer{}, domain.ErrOptionOutOfRange
	}
	if c.ledger.Has(question.ID) {
		c.mu.Unlock()
		return domain.GradedAnswer{}, domain.ErrAlreadyAnswered
	}
	if _, busy := c.inflight[question.ID]; busy {
		c.mu.Unlock()
		return domain.GradedAnswer{}, domain.ErrSubmissionInFlight
	}
	c.inflight[question.ID] = struct{}{}
	c.submission = OpStatus{State: OpPending}
	sessionID := c.session.ID
	c.broadcastLocked()
	c.mu.Unlock()

	result, err := c.svc.SubmitAnswer(ctx, sessionID, question.ID, input)

	c.mu.Lock()
	defer func() {
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	delete(c.inflight, question.ID)
	if c.session == nil || c.session.ID != sessionID {
		return domain.GradedAnswer{}, domain.ErrStaleResponse
	}
	if err != nil {
		c.submission = OpStatus{State: OpFailed, Err: err}
		return domain.GradedAnswer{}, err
	}
	if err := c.ledger.Put(question.ID, domain.AnswerRecord{Input: input, Result: result}); err != nil {
		c.submission = OpStatus{State: OpFailed, Err: err}
		return domain.GradedAnswer{}, err
	}
	c.submission = OpStatus{State: OpSucceeded}
	return result, nil
}

// Advance moves to the next question once the current one has a graded
// record. The pointer is clamped to the last index; advancing past it is a
// no-op.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer func() {
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	if c.session == nil {
		return domain.ErrNoSession
	}
	if c.view != ViewQuiz {
		return domain.ErrViewUnavailable
	}
	question := c.session.Questions[c.current]
	if !c.ledger.Has(question.ID) {
		return domain.ErrNotAnswered
	}
	if c.current < len(c.session.Questions)-1 {
		c.current++
		c.runner = NewRunner(c.session.Questions[c.current], c.ledger.Has)
	}
	return nil
}

// Finish switches to the Results view once the last question has a graded
// record, then fetches the authoritative summary. Session state is kept so
// the review can pair questions with ledger records.
func (c *Controller) Finish(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return domain.ErrNoSession
	}
	if c.view != ViewQuiz {
		c.mu.Unlock()
		return domain.ErrViewUnavailable
	}
	last := c.session.Questions[len(c.session.Questions)-1]
	if !c.ledger.Has(last.ID) {
		c.mu.Unlock()
		return domain.ErrNotAnswered
	}
	c.view = ViewResults
	c.broadcastLocked()
	c.mu.Unlock()

	return c.FetchSummary(ctx)
}

// FetchSummary loads the active session's summary. A failed fetch is
// recoverable: the Results view reports it distinctly and the call may be
// retried.
func (c *Controller) FetchSummary(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return domain.ErrNoSession
	}
	sessionID := c.session.ID
	c.summaryOp = OpStatus{State: OpPending}
	c.broadcastLocked()
	c.mu.Unlock()

	summary, err := c.history.SessionSummary(ctx, sessionID)

	c.mu.Lock()
	defer func() {
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	if c.session == nil || c.session.ID != sessionID {
		return domain.ErrStaleResponse
	}
	if err != nil {
		c.summaryOp = OpStatus{State: OpFailed, Err: err}
		return err
	}
	c.summary = &summary
	c.summaryOp = OpStatus{State: OpSucceeded}
	return nil
}

// Restart unconditionally returns to NoSession/Setup, discarding the
// session, ledger, pointer, pending errors, and cached history reads.
// In-flight responses resolving afterwards are dropped.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer func() {
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	c.restarts++
	c.session = nil
	c.ledger = NewLedger()
	c.runner = nil
	c.current = 0
	c.inflight = make(map[string]struct{})
	c.creation = OpStatus{}
	c.submission = OpStatus{}
	c.summaryOp = OpStatus{}
	c.summary = nil
	c.view = ViewSetup
	c.history.Invalidate()
}

// SetView selects a tab. Quiz and Results require an active session; Setup
// and History are always selectable. A disallowed selection is rejected
// without touching state.
func (c *Controller) SetView(view View) error {
	c.mu.Lock()
	defer func() {
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	switch view {
	case ViewSetup, ViewHistory:
	case ViewQuiz, ViewResults:
		if c.session == nil {
			return domain.ErrViewUnavailable
		}
	default:
		return domain.ErrViewUnavailable
	}
	c.view = view
	return nil
}

// ListSessions pages through past sessions via the history repository.
func (c *Controller) ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error) {
	return c.history.ListSessions(ctx, limit, offset)
}

// Runner returns the capture state for the current question, or nil when no
// session is active.
func (c *Controller) Runner() *Runner {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runner
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change.
// The caller must invoke the returned cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	initial := c.snapshotLocked()
	c.mu.Unlock()

	ch <- initial

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcastLocked() {
	snap := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so slow readers see the newest state.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		View:         c.view,
		CurrentIndex: c.current,
		Records:      c.ledger.Records(),
		Creation:     c.creation,
		Submission:   c.submission,
		SummaryFetch: c.summaryOp,
		Summary:      c.summary,
	}
	if c.session != nil {
		snap.HasSession = true
		snap.SessionID = c.session.ID
		snap.Config = c.session.Config
		snap.Questions = c.session.Questions
	}
	return snap
}
