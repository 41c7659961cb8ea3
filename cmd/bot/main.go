package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"mod-bot/internal/auth"
	"mod-bot/internal/bot"
	"mod-bot/internal/config"
	"mod-bot/internal/lockdown"
	"mod-bot/internal/notes"
	"mod-bot/internal/scheduler"
	"mod-bot/internal/zulip"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	client := zulip.NewRESTClient(cfg.ZulipSite, cfg.ZulipEmail, cfg.ZulipAPIKey)

	ctx := context.Background()

	self, err := client.OwnUser(ctx)
	if err != nil {
		log.Fatalf("failed to identify bot account: %v", err)
	}
	log.Printf("running as %s (%s)", self.FullName, self.Email)

	notesRepo, err := notes.NewFileRepository(cfg.NotesFilePath)
	if err != nil {
		log.Fatalf("failed to init notes repo: %v", err)
	}

	lockRepo, err := lockdown.NewFileRepository(cfg.LockdownFilePath)
	if err != nil {
		log.Fatalf("failed to init lockdown repo: %v", err)
	}

	policy := auth.New(cfg.ModeratorRole)

	b := bot.New(client, policy, notesRepo, lockRepo, self, cfg.MembersGroupID, cfg.MaxPurge)

	if cfg.CleanupSchedule != "" && len(cfg.CleanupStreams) > 0 {
		s := scheduler.New()
		s.SetSweepFunction(func(ctx context.Context) error {
			return b.Sweep(ctx, cfg.CleanupStreams)
		})
		if err := s.Start(cfg.CleanupSchedule); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer s.Stop()
	}

	if err := b.Run(ctx, client); err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}
