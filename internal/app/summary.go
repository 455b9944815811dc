package app

import (
	"sort"

	"lairn-cli/internal/domain"
)

// SummaryState says what the Results view should show. NoSession,
// Incomplete, and Unavailable are deliberately distinct: "nothing to
// summarize", "quiz not finished", and "the fetch failed" call for different
// messages.
type SummaryState int

const (
	SummaryNoSession SummaryState = iota
	SummaryIncomplete
	SummaryLoading
	SummaryUnavailable
	SummaryReady
)

// ReviewRow pairs a question with its ledger record for the per-question
// review. Answered is false when no record exists, which the renderer shows
// as an explicit "not answered" marker.
type ReviewRow struct {
	Question domain.Question
	Answered bool
	Input    domain.AnswerInput
	Result   domain.GradedAnswer
}

// DeriveSummaryState classifies the snapshot for the Results view.
func DeriveSummaryState(snap Snapshot) SummaryState {
	if !snap.HasSession {
		return SummaryNoSession
	}
	switch snap.SummaryFetch.State {
	case OpPending:
		return SummaryLoading
	case OpFailed:
		return SummaryUnavailable
	case OpSucceeded:
		if snap.Summary != nil {
			return SummaryReady
		}
		return SummaryUnavailable
	default:
		if len(snap.Records) < len(snap.Questions) {
			return SummaryIncomplete
		}
		return SummaryLoading
	}
}

// FallbackTally computes score and per-topic breakdown locally from the
// ledger and question metadata, for display when the authoritative summary
// is unavailable. Each question counts toward its first topic tag, matching
// the backend's aggregation.
func FallbackTally(questions []domain.Question, records map[string]domain.AnswerRecord) (domain.Score, []domain.TopicScore) {
	score := domain.Score{Total: len(questions)}
	byTopic := make(map[domain.Topic]*domain.TopicScore)
	order := make([]domain.Topic, 0)

	for _, question := range questions {
		topic := domain.Topic("")
		if len(question.TopicTags) > 0 {
			topic = question.TopicTags[0]
		}
		entry, ok := byTopic[topic]
		if !ok {
			entry = &domain.TopicScore{Topic: topic}
			byTopic[topic] = entry
			order = append(order, topic)
		}
		entry.Total++
		if record, ok := records[question.ID]; ok && record.Result.IsCorrect {
			entry.Correct++
			score.Correct++
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]domain.TopicScore, 0, len(order))
	for _, topic := range order {
		out = append(out, *byTopic[topic])
	}
	return score, out
}

// BuildReview produces one row per question in session order, tolerating
// missing records.
func BuildReview(questions []domain.Question, records map[string]domain.AnswerRecord) []ReviewRow {
	rows := make([]ReviewRow, 0, len(questions))
	for _, question := range questions {
		row := ReviewRow{Question: question}
		if record, ok := records[question.ID]; ok {
			row.Answered = true
			row.Input = record.Input
			row.Result = record.Result
		}
		rows = append(rows, row)
	}
	return rows
}
