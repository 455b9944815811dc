package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lairn-cli/internal/api"
	"lairn-cli/internal/app"
	"lairn-cli/internal/domain"
	redishistory "lairn-cli/internal/infra/redis"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	backend := newFakeBackend()
	server := httptest.NewServer(backend)
	defer server.Close()

	client := api.New(server.URL, 5*time.Second)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	history := redishistory.NewHistoryCache(redisClient, client, 5*time.Minute)
	ctrl := app.NewController(client, history)

	cfg := domain.QuizConfig{
		Topics:       []domain.Topic{domain.TopicStatistics},
		Difficulty:   domain.DifficultyEasy,
		QuestionType: domain.TypeMCQ,
		NumQuestions: 2,
	}
	if err := ctrl.StartSession(ctx, cfg); err != nil {
		t.Fatalf("start session: %v", err)
	}

	snap := ctrl.Snapshot()
	if len(snap.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(snap.Questions))
	}

	correct := 1
	if _, err := ctrl.Submit(ctx, domain.AnswerInput{OptionIndex: &correct}); err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if err := ctrl.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	wrong := 0
	if _, err := ctrl.Submit(ctx, domain.AnswerInput{OptionIndex: &wrong}); err != nil {
		t.Fatalf("submit q2: %v", err)
	}
	if err := ctrl.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	snap = ctrl.Snapshot()
	if snap.View != app.ViewResults || snap.Summary == nil {
		t.Fatalf("expected results with summary, got %+v", snap)
	}
	if snap.Summary.Score.Correct != 1 || snap.Summary.Score.Total != 2 {
		t.Fatalf("unexpected score %+v", snap.Summary.Score)
	}

	// The summary landed in redis; a refetch must not hit the backend again.
	before := backend.summaryHits()
	if _, err := history.SessionSummary(ctx, snap.SessionID); err != nil {
		t.Fatalf("cached summary: %v", err)
	}
	if backend.summaryHits() != before {
		t.Fatalf("expected summary served from redis")
	}

	page, err := ctrl.ListSessions(ctx, 20, 0)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].SessionID != snap.SessionID {
		t.Fatalf("unexpected history %+v", page.Items)
	}

	// Restart drops the cached reads.
	ctrl.Restart()
	before = backend.summaryHits()
	if _, err := history.SessionSummary(ctx, page.Items[0].SessionID); err != nil {
		t.Fatalf("summary after restart: %v", err)
	}
	if backend.summaryHits() != before+1 {
		t.Fatalf("expected cache miss after restart invalidation")
	}
}

// fakeBackend is a minimal in-memory rendition of the quiz service REST
// surface, just enough contract for the client under test.
type fakeBackend struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	answers  map[string]map[string]bool // session -> question -> correct
	hits     map[string]int
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sessions: make(map[string]domain.Session),
		answers:  make(map[string]map[string]bool),
		hits:     make(map[string]int),
	}
}

func (b *fakeBackend) summaryHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits["summary"]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodGet && path == "health":
		writeJSON(w, http.StatusOK, domain.Health{Status: "ok", Model: domain.ModelHealth{Reachable: true, Model: "llama3"}})

	case r.Method == http.MethodPost && path == "api/v1/quiz/sessions":
		var cfg domain.QuizConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.nextID++
		session := domain.Session{
			ID:        fmt.Sprintf("sess-%d", b.nextID),
			CreatedAt: time.Now().UTC(),
			Config:    cfg,
		}
		for i := 0; i < cfg.NumQuestions; i++ {
			session.Questions = append(session.Questions, domain.Question{
				ID:         fmt.Sprintf("%s-q%d", session.ID, i+1),
				OrderIndex: i + 1,
				Type:       domain.TypeMCQ,
				TopicTags:  cfg.Topics[:1],
				Difficulty: cfg.Difficulty,
				Prompt:     fmt.Sprintf("Question %d", i+1),
				Options:    []string{"alpha", "beta", "gamma"},
			})
		}
		b.sessions[session.ID] = session
		b.answers[session.ID] = make(map[string]bool)
		writeJSON(w, http.StatusCreated, session)

	case r.Method == http.MethodPost && len(parts) == 8 && parts[3] == "sessions" && parts[5] == "questions" && parts[7] == "answer":
		sessionID, questionID := parts[4], parts[6]
		if _, ok := b.sessions[sessionID]; !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		var input domain.AnswerInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.OptionIndex == nil {
			http.Error(w, "bad input", http.StatusBadRequest)
			return
		}
		// Option 1 ("beta") is always the right answer here.
		correct := *input.OptionIndex == 1
		b.answers[sessionID][questionID] = correct
		writeJSON(w, http.StatusOK, domain.GradedAnswer{
			IsCorrect:       correct,
			CorrectAnswer:   "beta",
			Explanation:     "beta is correct",
			WhyOthersWrong:  []string{},
			NormalizedInput: "beta",
		})

	case r.Method == http.MethodGet && len(parts) == 6 && parts[3] == "sessions" && parts[5] == "summary":
		b.hits["summary"]++
		sessionID := parts[4]
		session, ok := b.sessions[sessionID]
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		correct := 0
		for _, ok := range b.answers[sessionID] {
			if ok {
				correct++
			}
		}
		writeJSON(w, http.StatusOK, domain.Summary{
			SessionID: sessionID,
			Score:     domain.Score{Correct: correct, Total: len(session.Questions)},
			ByTopic: []domain.TopicScore{
				{Topic: session.Config.Topics[0], Correct: correct, Total: len(session.Questions)},
			},
			CreatedAt: session.CreatedAt,
		})

	case r.Method == http.MethodGet && path == "api/v1/quiz/sessions":
		b.hits["list"]++
		page := domain.SessionPage{Limit: 20}
		for id, session := range b.sessions {
			correct := 0
			for _, ok := range b.answers[id] {
				if ok {
					correct++
				}
			}
			page.Items = append(page.Items, domain.SessionListEntry{
				SessionID: id,
				CreatedAt: session.CreatedAt,
				Score:     domain.Score{Correct: correct, Total: len(session.Questions)},
				Config:    session.Config,
			})
		}
		writeJSON(w, http.StatusOK, page)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
