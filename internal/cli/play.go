package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lairn-cli/internal/app"
	"lairn-cli/internal/domain"
	"github.com/spf13/cobra"
)

// NewPlayCmd builds the subcommand that runs an interactive quiz session.
func NewPlayCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run an interactive quiz session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath, *apiURL)
			if err != nil {
				return err
			}
			return runPlay(cmd, rt)
		},
	}
}

func runPlay(cmd *cobra.Command, rt *runtime) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	ctrl := app.NewController(rt.client, rt.history)
	monitor := app.NewMonitor(rt.client, rt.healthInterval)
	printBanner(out, monitor.Poll(ctx))
	go monitor.Run(ctx)

	fmt.Fprintln(out, "Lairn — local AI quiz trainer for ML, GenAI, and MLOps topics.")

	for {
		cfg, ok := promptSetup(in, out)
		if !ok {
			return nil
		}
		fmt.Fprintln(out, "Creating session...")
		if err := ctrl.StartSession(ctx, cfg); err != nil {
			fmt.Fprintf(out, "Could not create quiz session: %v\n", err)
			fmt.Fprintln(out, "Verify backend health and input values.")
			if !promptYes(in, out, "Try again? [y/N] ") {
				return nil
			}
			continue
		}

		if ok := runQuestions(ctx, in, out, ctrl, monitor); !ok {
			return nil
		}
		renderResults(out, ctrl.Snapshot())

		if !promptYes(in, out, "Start another quiz? [y/N] ") {
			return nil
		}
		ctrl.Restart()
	}
}

// promptSetup collects the quiz config, mirroring the setup form defaults:
// difficulty medium, mixed questions, 5 questions, at least one topic.
func promptSetup(in *bufio.Scanner, out io.Writer) (domain.QuizConfig, bool) {
	fmt.Fprintln(out, "\nQuiz Setup")
	fmt.Fprintln(out, "Topics:")
	for i, opt := range domain.TopicCatalog {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Label)
	}

	var topics []domain.Topic
	for len(topics) == 0 {
		line, ok := readLine(in, out, "Pick topics (comma-separated numbers, default 1): ")
		if !ok {
			return domain.QuizConfig{}, false
		}
		topics = parseTopics(line)
		if len(topics) == 0 {
			fmt.Fprintln(out, "Pick at least one valid topic.")
		}
	}

	difficulty := domain.DifficultyMedium
	if line, ok := readLine(in, out, "Difficulty (easy/medium/hard, default medium): "); !ok {
		return domain.QuizConfig{}, false
	} else if trimmed := strings.TrimSpace(line); trimmed != "" {
		difficulty = domain.Difficulty(trimmed)
	}

	questionType := domain.TypeMixed
	if line, ok := readLine(in, out, "Question type (mcq/short-answer/mixed, default mixed): "); !ok {
		return domain.QuizConfig{}, false
	} else if trimmed := strings.TrimSpace(line); trimmed != "" {
		questionType = domain.QuestionType(trimmed)
	}

	count := 5
	if line, ok := readLine(in, out, "Number of questions (1-50, default 5): "); !ok {
		return domain.QuizConfig{}, false
	} else if trimmed := strings.TrimSpace(line); trimmed != "" {
		if n, err := strconv.Atoi(trimmed); err == nil {
			count = n
		}
	}
	if count < 1 {
		count = 1
	}
	if count > 50 {
		count = 50
	}

	return domain.QuizConfig{
		Topics:       topics,
		Difficulty:   difficulty,
		QuestionType: questionType,
		NumQuestions: count,
	}, true
}

func parseTopics(line string) []domain.Topic {
	line = strings.TrimSpace(line)
	if line == "" {
		return []domain.Topic{domain.TopicCatalog[0].Value}
	}
	var topics []domain.Topic
	seen := make(map[domain.Topic]struct{})
	for _, field := range strings.Split(line, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > len(domain.TopicCatalog) {
			continue
		}
		topic := domain.TopicCatalog[n-1].Value
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}

// runQuestions walks the session question by question. Returns false on EOF.
func runQuestions(ctx context.Context, in *bufio.Scanner, out io.Writer, ctrl *app.Controller, monitor *app.Monitor) bool {
	lastBanner := monitor.Last().Level
	for {
		snap := ctrl.Snapshot()
		question, ok := snap.CurrentQuestion()
		if !ok {
			return true
		}

		if status := monitor.Last(); status.Level != lastBanner {
			printBanner(out, status)
			lastBanner = status.Level
		}

		total := len(snap.Questions)
		fmt.Fprintf(out, "\nQuestion %d of %d  [%s | %s]\n", snap.CurrentIndex+1, total, question.Type, question.Difficulty)
		fmt.Fprintln(out, question.Prompt)

		input, ok := captureInput(in, out, ctrl.Runner())
		if !ok {
			return false
		}

		result, err := ctrl.Submit(ctx, input)
		if err != nil {
			// Ledger untouched; the question stays answerable.
			fmt.Fprintf(out, "Could not submit answer: %v. Try again.\n", err)
			continue
		}
		printFeedback(out, result)

		if snap.CurrentIndex == total-1 {
			if err := ctrl.Finish(ctx); err != nil {
				fmt.Fprintf(out, "Could not load session summary: %v\n", err)
			}
			return true
		}

		if _, ok := readLine(in, out, "Press Enter for the next question..."); !ok {
			return false
		}
		if err := ctrl.Advance(); err != nil {
			fmt.Fprintf(out, "Cannot advance: %v\n", err)
		}
	}
}

// captureInput loops until the runner accepts a valid answer. Returns false on EOF.
func captureInput(in *bufio.Scanner, out io.Writer, runner *app.Runner) (domain.AnswerInput, bool) {
	question := runner.Question()
	for {
		if question.Type == domain.TypeMCQ {
			for i, option := range question.Options {
				fmt.Fprintf(out, "  %d) %s\n", i+1, option)
			}
			line, ok := readLine(in, out, "Answer (number): ")
			if !ok {
				return domain.AnswerInput{}, false
			}
			n, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintln(out, "Enter the number of an option.")
				continue
			}
			if err := runner.Select(n - 1); err != nil {
				fmt.Fprintf(out, "Invalid selection: %v\n", err)
				continue
			}
		} else {
			line, ok := readLine(in, out, "Your answer: ")
			if !ok {
				return domain.AnswerInput{}, false
			}
			if err := runner.SetText(line); err != nil {
				fmt.Fprintf(out, "Invalid input: %v\n", err)
				continue
			}
		}

		input, err := runner.Input()
		if err != nil {
			fmt.Fprintf(out, "Invalid input: %v\n", err)
			continue
		}
		return input, true
	}
}

func printFeedback(out io.Writer, result domain.GradedAnswer) {
	if result.IsCorrect {
		fmt.Fprintln(out, "\nCorrect!")
	} else {
		fmt.Fprintln(out, "\nIncorrect.")
	}
	fmt.Fprintf(out, "Correct answer: %s\n", result.CorrectAnswer)
	fmt.Fprintf(out, "Explanation: %s\n", result.Explanation)
	for _, reason := range result.WhyOthersWrong {
		fmt.Fprintf(out, "  - %s\n", reason)
	}
	if result.NormalizedInput != "" {
		fmt.Fprintf(out, "Normalized answer: %s\n", result.NormalizedInput)
	}
}

func renderResults(out io.Writer, snap app.Snapshot) {
	fmt.Fprintln(out, "\nResults")

	switch app.DeriveSummaryState(snap) {
	case app.SummaryNoSession:
		fmt.Fprintln(out, "Complete a quiz to see summary and review.")
		return
	case app.SummaryIncomplete:
		fmt.Fprintln(out, "Quiz not finished yet.")
		return
	case app.SummaryLoading:
		fmt.Fprintln(out, "Loading summary...")
		return
	case app.SummaryUnavailable:
		fmt.Fprintln(out, "Could not load session summary. Showing local tally instead.")
		score, byTopic := app.FallbackTally(snap.Questions, snap.Records)
		printTally(out, score, byTopic)
	case app.SummaryReady:
		summary := snap.Summary
		printTally(out, summary.Score, summary.ByTopic)
		fmt.Fprintf(out, "Created: %s\n", summary.CreatedAt.Local().Format("2006-01-02 15:04"))
		if summary.CompletedAt != nil {
			fmt.Fprintf(out, "Completed: %s\n", summary.CompletedAt.Local().Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintln(out, "Completed: not completed")
		}
	}

	fmt.Fprintln(out, "\nReview")
	for _, row := range app.BuildReview(snap.Questions, snap.Records) {
		fmt.Fprintf(out, "#%d %s\n", row.Question.OrderIndex, row.Question.Prompt)
		if !row.Answered {
			fmt.Fprintln(out, "  Your input: not answered")
			continue
		}
		fmt.Fprintf(out, "  Your input: %s\n", inputLabel(row.Input))
		fmt.Fprintf(out, "  Correct answer: %s\n", row.Result.CorrectAnswer)
		fmt.Fprintf(out, "  Explanation: %s\n", row.Result.Explanation)
	}
}

func printTally(out io.Writer, score domain.Score, byTopic []domain.TopicScore) {
	fmt.Fprintf(out, "Score: %d/%d\n", score.Correct, score.Total)
	fmt.Fprintln(out, "By topic:")
	for _, item := range byTopic {
		fmt.Fprintf(out, "  %s: %d/%d\n", domain.TopicLabel(item.Topic), item.Correct, item.Total)
	}
}

func inputLabel(input domain.AnswerInput) string {
	if input.OptionIndex != nil {
		return fmt.Sprintf("Option %d", *input.OptionIndex+1)
	}
	return input.Text
}

func printBanner(out io.Writer, status app.HealthStatus) {
	switch status.Level {
	case app.BannerError:
		fmt.Fprintln(out, "[!] Backend is unreachable. Start it and try again.")
	case app.BannerWarn:
		fmt.Fprintf(out, "[!] Model %s is unavailable. Run: ollama pull %s\n", status.Health.Model.Model, status.Health.Model.Model)
	case app.BannerOK:
		fmt.Fprintf(out, "Connected: %s\n", status.Health.Model.Model)
	}
}

func readLine(in *bufio.Scanner, out io.Writer, prompt string) (string, bool) {
	fmt.Fprint(out, prompt)
	if !in.Scan() {
		return "", false
	}
	return in.Text(), true
}

func promptYes(in *bufio.Scanner, out io.Writer, prompt string) bool {
	line, ok := readLine(in, out, prompt)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
