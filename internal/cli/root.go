package cli

import (
	"os"
	"time"

	"lairn-cli/internal/api"
	"lairn-cli/internal/app"
	"lairn-cli/internal/config"
	"lairn-cli/internal/infra/memory"
	redishistory "lairn-cli/internal/infra/redis"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "lairn",
		Short: "Terminal client for the Lairn AI quiz trainer",
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", os.Getenv("LAIRN_API_URL"), "base URL of the quiz backend")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewPlayCmd(&configPath, &apiURL))
	cmd.AddCommand(NewHistoryCmd(&configPath, &apiURL))
	cmd.AddCommand(NewHealthCmd(&configPath, &apiURL))
	return cmd
}

// runtime bundles the collaborators a command needs: the API client and the
// history cache (redis-backed when configured, in-memory otherwise).
type runtime struct {
	client         *api.Client
	history        app.HistoryRepository
	healthInterval time.Duration
}

func newRuntime(configPath, apiURLFlag string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = config.Config{}
	}

	baseURL := apiURLFlag
	if baseURL == "" {
		baseURL = cfg.Server.BaseURL
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	client := api.New(baseURL, config.Duration(cfg.Server.Timeout, 30*time.Second))

	historyTTL := config.Duration(cfg.History.TTL, time.Minute)
	var history app.HistoryRepository
	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		history = redishistory.NewHistoryCache(rdb, client, historyTTL)
	} else {
		history = memory.NewHistoryCache(client, historyTTL)
	}

	return &runtime{
		client:         client,
		history:        history,
		healthInterval: config.Duration(cfg.Health.Interval, 20*time.Second),
	}, nil
}
