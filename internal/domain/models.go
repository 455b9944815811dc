package domain

import "time"

// Difficulty levels accepted by the question generator.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType selects the answer format. Mixed is only valid in a config;
// generated questions are always concretely mcq or short-answer.
type QuestionType string

const (
	TypeMCQ         QuestionType = "mcq"
	TypeShortAnswer QuestionType = "short-answer"
	TypeMixed       QuestionType = "mixed"
)

// QuizConfig is the user-chosen shape of a session. Immutable once a session
// has been created from it.
type QuizConfig struct {
	Topics       []Topic      `json:"topics"`
	Difficulty   Difficulty   `json:"difficulty"`
	QuestionType QuestionType `json:"question_type"`
	NumQuestions int          `json:"num_questions"`
}

// Validate checks the config against the backend's accepted ranges.
func (c QuizConfig) Validate() error {
	if len(c.Topics) == 0 {
		return ErrNoTopics
	}
	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return ErrInvalidConfig
	}
	switch c.QuestionType {
	case TypeMCQ, TypeShortAnswer, TypeMixed:
	default:
		return ErrInvalidConfig
	}
	if c.NumQuestions < 1 || c.NumQuestions > 50 {
		return ErrInvalidConfig
	}
	return nil
}

// Question is a server-issued fact; never mutated after receipt.
// Options is non-empty iff Type is mcq.
type Question struct {
	ID         string       `json:"id"`
	OrderIndex int          `json:"order_index"`
	Type       QuestionType `json:"type"`
	TopicTags  []Topic      `json:"topic_tags"`
	Difficulty Difficulty   `json:"difficulty"`
	Prompt     string       `json:"prompt"`
	Options    []string     `json:"options"`
}

// Session is one quiz attempt: config plus the fixed ordered question set.
type Session struct {
	ID        string     `json:"session_id"`
	CreatedAt time.Time  `json:"created_at"`
	Config    QuizConfig `json:"config"`
	Questions []Question `json:"questions"`
}

// AnswerInput carries exactly one of OptionIndex (mcq) or Text (short-answer).
type AnswerInput struct {
	OptionIndex *int   `json:"option_index,omitempty"`
	Text        string `json:"answer,omitempty"`
}

// Matches reports whether the input shape fits the given question type.
func (a AnswerInput) Matches(qt QuestionType) bool {
	switch qt {
	case TypeMCQ:
		return a.OptionIndex != nil && a.Text == ""
	case TypeShortAnswer:
		return a.OptionIndex == nil && a.Text != ""
	default:
		return false
	}
}

// GradedAnswer is the grading service's verdict for one submission.
type GradedAnswer struct {
	IsCorrect       bool     `json:"is_correct"`
	CorrectAnswer   string   `json:"correct_answer"`
	Explanation     string   `json:"explanation"`
	WhyOthersWrong  []string `json:"why_others_wrong"`
	NormalizedInput string   `json:"normalized_user_answer"`
}

// AnswerRecord pairs what the user submitted with the graded result.
type AnswerRecord struct {
	Input  AnswerInput
	Result GradedAnswer
}

// Score is a correct/total tally.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// TopicScore is the per-topic slice of a session score.
type TopicScore struct {
	Topic   Topic `json:"topic"`
	Correct int   `json:"correct"`
	Total   int   `json:"total"`
}

// Summary is the backend's authoritative aggregate for a session.
type Summary struct {
	SessionID   string       `json:"session_id"`
	Score       Score        `json:"score"`
	ByTopic     []TopicScore `json:"by_topic"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

// SessionListEntry is the lightweight history row; no question payload.
type SessionListEntry struct {
	SessionID   string     `json:"session_id"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Score       Score      `json:"score"`
	Config      QuizConfig `json:"config"`
}

// SessionPage is one page of the session history.
type SessionPage struct {
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
	Items  []SessionListEntry `json:"items"`
}

// ModelHealth describes the backend's connection to its grading model.
type ModelHealth struct {
	Reachable bool   `json:"reachable"`
	Model     string `json:"model"`
}

// Health is the advisory backend status; it never gates session actions.
type Health struct {
	Status string      `json:"status"`
	Model  ModelHealth `json:"ollama"`
}
