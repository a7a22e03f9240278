package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/r0d10nq/dimon/internal/agent"
	"github.com/r0d10nq/dimon/internal/bot"
	"github.com/r0d10nq/dimon/internal/config"
	"github.com/r0d10nq/dimon/internal/embedder"
	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/internal/llm"
	"github.com/r0d10nq/dimon/internal/logger"
	"github.com/r0d10nq/dimon/internal/storage"
	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	tuning, policy, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		logger.Fatal("failed to load tuning", "error", err, "path", cfg.TuningPath)
	}

	model, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	memory, err := dimonmem.Open(cfg.MemoryPath)
	if err != nil {
		logger.Fatal("failed to open memory", "error", err)
	}

	defer memory.Close()

	memory.SetTuning(tuning)

	emb, err := embedder.New(embedder.Config{
		Provider: cfg.Embedder.Provider,
		BaseURL:  cfg.Embedder.BaseURL,
		Model:    cfg.Embedder.Model,
	})
	if err != nil {
		logger.Fatal("failed to create embedder", "error", err)
	}

	if emb != nil {
		memory.SetEmbedder(emb)
		logger.Debug("embedder configured", "provider", cfg.Embedder.Provider)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// catch up on events appended while no embedder was running
	if memory.HasEmbedder() {
		go func() {
			sweepCtx, sweepCancel := context.WithTimeout(ctx, 5*time.Minute)
			defer sweepCancel()

			n, err := memory.EmbedPending(sweepCtx)
			if err != nil {
				logger.Error("embed backfill failed", "error", err)
			} else if n > 0 {
				logger.Info("embed backfill completed", "events", n)
			}
		}()
	}

	arbiter := engage.New(policy)
	dimon := agent.New(model, memory, arbiter, cfg.PersonaPath, cfg.Timezone)

	var bots []bot.Bot
	var enabledProviders []string

	if cfg.Bots.Telegram.Enabled {
		b, err := bot.New(bot.Config{
			Provider: "telegram",
			Token:    cfg.Bots.Telegram.Token,
			ChatID:   cfg.Chat.ChatID,
		}, dimon)
		if err != nil {
			logger.Fatal("failed to create telegram bot", "error", err)
		}

		bots = append(bots, b)
		enabledProviders = append(enabledProviders, "telegram")

		go b.Start(ctx)
	}

	if cfg.Bots.Discord.Enabled {
		b, err := bot.New(bot.Config{
			Provider: "discord",
			Token:    cfg.Bots.Discord.Token,
			ChatID:   cfg.Chat.ChatID,
		}, dimon)
		if err != nil {
			logger.Fatal("failed to create discord bot", "error", err)
		}

		bots = append(bots, b)
		enabledProviders = append(enabledProviders, "discord")

		go b.Start(ctx)
	}

	if len(bots) == 0 {
		logger.Fatal("no bot providers enabled, set TELEGRAM_TOKEN or DISCORD_TOKEN")
	}

	notifyBot := bots[0]

	scheduler := agent.NewScheduler(dimon, func(chatID int64, message string) error {
		return notifyBot.Send(chatID, message)
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", "error", err)
	}
	logger.Info("initiation scheduler started", "timezone", cfg.Timezone)

	go func() {
		for range time.Tick(24 * time.Hour) {
			cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
			deleted, err := memory.PurgeOlderThan(cutoff)
			if err != nil {
				logger.Error("retention purge failed", "error", err)
			} else if deleted > 0 {
				logger.Info("retention purge completed", "deleted", deleted, "days", cfg.RetentionDays)
			}
		}
	}()

	if cfg.Storage.Enabled {
		storageClient, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
		if err != nil {
			logger.Error("failed to create storage client", "error", err)
		} else {
			initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
			if err := storageClient.Init(initCtx); err != nil {
				logger.Error("failed to init storage bucket", "error", err)
				storageClient = nil
			} else {
				logger.Info("backups enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
			}
			initCancel()
		}

		if storageClient != nil {
			go func() {
				for range time.Tick(24 * time.Hour) {
					backupCtx, backupCancel := context.WithTimeout(ctx, 5*time.Minute)
					if err := storageClient.BackupDatabase(backupCtx, cfg.MemoryPath); err != nil {
						logger.Error("backup failed", "error", err)
					} else if err := storageClient.PruneBackups(backupCtx, 14); err != nil {
						logger.Error("backup prune failed", "error", err)
					}
					backupCancel()
				}
			}()
		}
	}

	embedderProvider := cfg.Embedder.Provider
	if embedderProvider == "" {
		embedderProvider = "none"
	}

	logger.Info("dimon started",
		"bots", enabledProviders,
		"llm", cfg.LLM.Provider,
		"embedder", embedderProvider,
		"persona", cfg.PersonaPath,
		"memory", cfg.MemoryPath,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
}
