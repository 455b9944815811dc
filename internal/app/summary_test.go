package app

import (
	"testing"

	"lairn-cli/internal/domain"
)

func reviewQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", OrderIndex: 1, Type: domain.TypeMCQ, TopicTags: []domain.Topic{domain.TopicStatistics}},
		{ID: "q2", OrderIndex: 2, Type: domain.TypeShortAnswer, TopicTags: []domain.Topic{domain.TopicGenerativeAI}},
		{ID: "q3", OrderIndex: 3, Type: domain.TypeMCQ, TopicTags: []domain.Topic{domain.TopicStatistics}},
	}
}

func TestFallbackTally(t *testing.T) {
	records := map[string]domain.AnswerRecord{
		"q1": {Result: domain.GradedAnswer{IsCorrect: true}},
		"q2": {Result: domain.GradedAnswer{IsCorrect: false}},
		"q3": {Result: domain.GradedAnswer{IsCorrect: true}},
	}

	score, byTopic := FallbackTally(reviewQuestions(), records)
	if score.Correct != 2 || score.Total != 3 {
		t.Fatalf("unexpected score %+v", score)
	}
	if len(byTopic) != 2 {
		t.Fatalf("expected 2 topic buckets, got %d", len(byTopic))
	}
	for _, item := range byTopic {
		switch item.Topic {
		case domain.TopicStatistics:
			if item.Correct != 2 || item.Total != 2 {
				t.Fatalf("unexpected statistics tally %+v", item)
			}
		case domain.TopicGenerativeAI:
			if item.Correct != 0 || item.Total != 1 {
				t.Fatalf("unexpected genai tally %+v", item)
			}
		default:
			t.Fatalf("unexpected topic %s", item.Topic)
		}
	}
}

func TestFallbackTallyWithMissingRecords(t *testing.T) {
	score, byTopic := FallbackTally(reviewQuestions(), nil)
	if score.Correct != 0 || score.Total != 3 {
		t.Fatalf("unexpected score %+v", score)
	}
	total := 0
	for _, item := range byTopic {
		total += item.Total
	}
	if total != 3 {
		t.Fatalf("topic totals must cover all questions, got %d", total)
	}
}

func TestBuildReviewMarksUnanswered(t *testing.T) {
	records := map[string]domain.AnswerRecord{
		"q1": {
			Input:  domain.AnswerInput{Text: "attention"},
			Result: domain.GradedAnswer{IsCorrect: true, CorrectAnswer: "attention"},
		},
	}

	rows := BuildReview(reviewQuestions(), records)
	if len(rows) != 3 {
		t.Fatalf("expected a row per question, got %d", len(rows))
	}
	if !rows[0].Answered || rows[0].Result.CorrectAnswer != "attention" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Answered || rows[2].Answered {
		t.Fatalf("missing records must render as not answered")
	}
}

func TestDeriveSummaryStateDistinctions(t *testing.T) {
	if got := DeriveSummaryState(Snapshot{}); got != SummaryNoSession {
		t.Fatalf("expected SummaryNoSession, got %v", got)
	}

	incomplete := Snapshot{
		HasSession: true,
		Questions:  reviewQuestions(),
		Records:    map[string]domain.AnswerRecord{"q1": {}},
	}
	if got := DeriveSummaryState(incomplete); got != SummaryIncomplete {
		t.Fatalf("expected SummaryIncomplete, got %v", got)
	}

	loading := incomplete
	loading.SummaryFetch = OpStatus{State: OpPending}
	if got := DeriveSummaryState(loading); got != SummaryLoading {
		t.Fatalf("expected SummaryLoading, got %v", got)
	}

	failed := incomplete
	failed.SummaryFetch = OpStatus{State: OpFailed}
	if got := DeriveSummaryState(failed); got != SummaryUnavailable {
		t.Fatalf("expected SummaryUnavailable, got %v", got)
	}

	ready := incomplete
	ready.SummaryFetch = OpStatus{State: OpSucceeded}
	ready.Summary = &domain.Summary{}
	if got := DeriveSummaryState(ready); got != SummaryReady {
		t.Fatalf("expected SummaryReady, got %v", got)
	}
}
