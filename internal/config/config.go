package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ZulipSite   string `env:"ZULIP_SITE,required"`
	ZulipEmail  string `env:"ZULIP_EMAIL,required"`
	ZulipAPIKey string `env:"ZULIP_API_KEY,required"`

	// Moderation settings
	ModeratorRole  int   `env:"MODERATOR_ROLE" envDefault:"300"`
	MembersGroupID int64 `env:"MEMBERS_GROUP_ID"`
	MaxPurge       int   `env:"MAX_PURGE" envDefault:"1000"`

	// Storage
	NotesFilePath    string `env:"NOTES_FILE_PATH" envDefault:"data/notes.json"`
	LockdownFilePath string `env:"LOCKDOWN_FILE_PATH" envDefault:"data/lockdown.json"`

	// Scheduled sweep of the bot's own messages (empty disables it)
	CleanupSchedule string   `env:"CLEANUP_SCHEDULE"`
	CleanupStreams  []string `env:"CLEANUP_STREAMS" envSeparator:":"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
