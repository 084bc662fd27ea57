package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/drawphone/internal/factory"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/escalator"
	"github.com/mcoot/drawphone/internal/services/game"
	"github.com/mcoot/drawphone/internal/services/notify"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/services/tasks"
	redisstorage "github.com/mcoot/drawphone/internal/storage/redis"
)

type Config struct {
	port          int
	baseURL       string
	storage       string
	redisURL      string
	gameTTL       time.Duration
	objectStore   string
	localStoreDir string
	localStoreURL string
	s3Bucket      string
	s3Region      string
	s3URLBase     string
	slackWebhook  string
	discordHook   string
	commandPrefix string
	messageRate   float64
	sweepInterval time.Duration
	taskWorkers   int
	minPlayers    int
	verbose       bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.storage == factory.StorageTypeRedis && c.redisURL == "" {
		return errors.New("--redis-url is required when --storage=redis")
	}
	if c.objectStore == factory.ObjectStoreS3 && c.s3Bucket == "" {
		return errors.New("--s3-bucket is required when --object-store=s3")
	}
	if c.sweepInterval < 0 {
		return errors.New("--sweep-interval must not be negative")
	}
	return nil
}

func (c *Config) logLevel() slog.Level {
	if c.verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// factoryConfig translates flags into application wiring settings
func (c *Config) factoryConfig(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:          logger,
		StorageType:     c.storage,
		ObjectStoreType: c.objectStore,
		LocalStoreDir:   c.localStoreDir,
		LocalStoreURL:   c.localStoreURL,
		Bots:            c.bots(logger),
		Game: game.Config{
			BaseURL:    c.baseURL,
			MinPlayers: c.minPlayers,
		},
		Notify: notify.Config{
			MessagesPerSecond: c.messageRate,
			Burst:             notify.DefaultConfig().Burst,
		},
		Tasks: tasks.Config{
			Workers:   c.taskWorkers,
			QueueSize: tasks.DefaultConfig().QueueSize,
			Timeout:   tasks.DefaultConfig().Timeout,
		},
		Escalator: escalator.Config{
			CommandPrefix: c.commandPrefix,
		},
	}

	if c.storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.redisURL
		redisCfg.GameTTL = c.gameTTL
		cfg.RedisConfig = &redisCfg
	}
	if c.objectStore == factory.ObjectStoreS3 {
		cfg.S3Config = &objectstore.S3Config{
			Bucket:  c.s3Bucket,
			Region:  c.s3Region,
			URLBase: c.s3URLBase,
		}
	}
	return cfg
}

// bots uses a webhook adapter for each platform that has one configured and
// logs messages for the rest
func (c *Config) bots(logger *slog.Logger) []notify.Bot {
	hooks := map[model.Platform]string{
		model.PlatformSlack:   c.slackWebhook,
		model.PlatformDiscord: c.discordHook,
	}
	bots := make([]notify.Bot, 0, len(hooks))
	for _, platform := range []model.Platform{model.PlatformSlack, model.PlatformDiscord} {
		if url := hooks[platform]; url != "" {
			bots = append(bots, notify.NewWebhookBot(platform, url, 10*time.Second))
			continue
		}
		bots = append(bots, notify.NewLogBot(platform, logger))
	}
	return bots
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DRAWPHONE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "drawphone",
		Short:         "Telephone with pictures, played over chat.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.validate()
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DRAWPHONE_PORT)")
	fs.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "public URL prefixed to play links (env: DRAWPHONE_BASE_URL)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "game storage backend, memory or redis (env: DRAWPHONE_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL (env: DRAWPHONE_REDIS_URL)")
	fs.DurationVar(&cfg.gameTTL, "game-ttl", 0, "expire finished games after this long in redis, 0 keeps them (env: DRAWPHONE_GAME_TTL)")
	fs.StringVar(&cfg.objectStore, "object-store", factory.ObjectStoreLocal, "image storage, local or s3 (env: DRAWPHONE_OBJECT_STORE)")
	fs.StringVar(&cfg.localStoreDir, "local-store-dir", "data/objects", "directory for local image storage (env: DRAWPHONE_LOCAL_STORE_DIR)")
	fs.StringVar(&cfg.localStoreURL, "local-store-url", "http://localhost:8080/files", "URL local images are served from (env: DRAWPHONE_LOCAL_STORE_URL)")
	fs.StringVar(&cfg.s3Bucket, "s3-bucket", "", "bucket for image storage (env: DRAWPHONE_S3_BUCKET)")
	fs.StringVar(&cfg.s3Region, "s3-region", "", "region of the image bucket (env: DRAWPHONE_S3_REGION)")
	fs.StringVar(&cfg.s3URLBase, "s3-url-base", "", "public URL prefix for stored images (env: DRAWPHONE_S3_URL_BASE)")
	fs.StringVar(&cfg.slackWebhook, "slack-webhook-url", "", "slack adapter base URL, messages are logged when empty (env: DRAWPHONE_SLACK_WEBHOOK_URL)")
	fs.StringVar(&cfg.discordHook, "discord-webhook-url", "", "discord adapter base URL, messages are logged when empty (env: DRAWPHONE_DISCORD_WEBHOOK_URL)")
	fs.StringVar(&cfg.commandPrefix, "command-prefix", "@drawphone", "how players address the bot (env: DRAWPHONE_COMMAND_PREFIX)")
	fs.Float64Var(&cfg.messageRate, "message-rate", 1, "outbound messages per second per platform (env: DRAWPHONE_MESSAGE_RATE)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 24*time.Hour, "time between inactivity sweeps, 0 disables them (env: DRAWPHONE_SWEEP_INTERVAL)")
	fs.IntVar(&cfg.taskWorkers, "task-workers", 4, "background workers for avatars and title images (env: DRAWPHONE_TASK_WORKERS)")
	fs.IntVar(&cfg.minPlayers, "min-players", 4, "players needed to start a game (env: DRAWPHONE_MIN_PLAYERS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DRAWPHONE_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newServeCmd(cfg), newSweepCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
