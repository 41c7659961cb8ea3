package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mod-bot/internal/auth"
	"mod-bot/internal/command"
	"mod-bot/internal/lockdown"
	"mod-bot/internal/notes"
	"mod-bot/internal/zulip"
)

const defaultMaxPurge = 1000

type Bot struct {
	client   zulip.Client
	policy   *auth.Policy
	notes    notes.Repository
	lockdown lockdown.Repository

	self     zulip.User
	groupID  int64
	maxPurge int
}

func New(client zulip.Client, policy *auth.Policy, notesRepo notes.Repository, lockRepo lockdown.Repository, self zulip.User, groupID int64, maxPurge int) *Bot {
	if maxPurge <= 0 {
		maxPurge = defaultMaxPurge
	}
	return &Bot{
		client:   client,
		policy:   policy,
		notes:    notesRepo,
		lockdown: lockRepo,
		self:     self,
		groupID:  groupID,
		maxPurge: maxPurge,
	}
}

// EventSource delivers inbound messages, normally the REST client's
// long-poll queue.
type EventSource interface {
	RegisterQueue(ctx context.Context) (string, int64, error)
	Events(ctx context.Context, queueID string, lastEventID int64) ([]zulip.Event, error)
}

// Run polls for events until ctx is cancelled, re-registering the
// queue whenever the server drops it.
func (b *Bot) Run(ctx context.Context, src EventSource) error {
	for {
		queueID, lastID, err := src.RegisterQueue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("failed to register event queue: %v", err)
			select {
			case <-time.After(5 * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		log.Printf("event queue registered: %s", queueID)

		for {
			events, err := src.Events(ctx, queueID, lastID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, zulip.ErrBadEventQueue) {
					log.Printf("event queue %s expired, re-registering", queueID)
					break
				}
				log.Printf("failed to poll events: %v", err)
				select {
				case <-time.After(2 * time.Second):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			for _, ev := range events {
				if ev.ID > lastID {
					lastID = ev.ID
				}
				if ev.Message == nil {
					continue
				}
				m := *ev.Message
				if m.SenderID == b.self.ID {
					continue
				}
				// Stream messages are commands only when the bot is mentioned.
				if m.Type == "stream" && !hasFlag(ev.Flags, "mentioned") {
					continue
				}
				m.Content = b.stripMention(m.Content)
				b.HandleMessage(ctx, m)
			}
		}
	}
}

// HandleMessage runs the full pipeline for one inbound command:
// delete the triggering message, parse, authorize, execute, respond.
// Every path ends in exactly one public response; nothing escapes.
func (b *Bot) HandleMessage(ctx context.Context, msg zulip.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic while handling message %d: %v", msg.ID, r)
			b.respond(ctx, msg, fmt.Sprintf("Error processing command: %v", r))
		}
	}()

	// Commands are not meant to remain visible. Private messages to the
	// bot are left alone; only the bot's own copy could be deleted.
	if msg.Type == "stream" {
		if err := b.client.DeleteMessage(ctx, msg.ID); err != nil {
			log.Printf("failed to delete command message %d: %v", msg.ID, err)
		}
	}

	intent := command.Parse(msg.Content)

	// Role is fetched fresh for every message; it may have changed.
	caller, err := b.client.GetUser(ctx, msg.SenderID)
	if err != nil {
		b.respond(ctx, msg, "Error processing command: "+err.Error())
		return
	}

	switch {
	case intent.Kind == command.Help:
		b.respond(ctx, msg, b.helpText(caller.Role))
	case intent.Kind == command.Unrecognized:
		b.respond(ctx, msg, "Invalid command format\n"+b.helpText(caller.Role))
	case !b.policy.Allows(caller.Role, intent.Kind):
		b.respond(ctx, msg, "Unauthorized")
	default:
		b.respond(ctx, msg, b.execute(ctx, intent, msg, caller.Role))
	}
}

func (b *Bot) execute(ctx context.Context, intent command.Intent, msg zulip.Message, role int) string {
	// The purge family narrows on the originating channel; run by
	// direct message the narrow would be empty and match the whole
	// realm.
	switch intent.Kind {
	case command.Purge, command.PurgeUser, command.PurgeAll, command.Clean:
		if msg.Type != "stream" {
			return "This command only works in a channel topic."
		}
	}

	switch intent.Kind {
	case command.Resolve:
		return b.resolveTopic(ctx, msg, true)
	case command.Unresolve:
		return b.resolveTopic(ctx, msg, false)
	case command.Purge:
		return b.purge(ctx, zulip.Narrow{Stream: msg.Stream, Topic: msg.Topic}, intent.Count, "")
	case command.PurgeUser, command.PurgeAll:
		return b.purge(ctx, zulip.Narrow{Stream: msg.Stream, Sender: intent.Email}, intent.Count, intent.Email)
	case command.Clean:
		return b.clean(ctx, msg)
	case command.Mute:
		return b.mute(ctx, intent.Email)
	case command.Unmute:
		return b.unmute(ctx, intent.Email)
	case command.GetNotes:
		return b.getNotes(ctx, msg, intent.Email)
	case command.AddNote:
		return b.addNote(ctx, intent.Email, intent.Text)
	case command.LockdownStart:
		return b.lockdownStart(ctx)
	case command.LockdownEnd:
		return b.lockdownEnd(ctx)
	}
	return "Invalid command format\n" + b.helpText(role)
}

// respond posts the single public response for a command, back to the
// originating topic or, for direct-message commands, to the sender.
func (b *Bot) respond(ctx context.Context, msg zulip.Message, text string) {
	if msg.Type == "stream" {
		if _, err := b.client.SendMessage(ctx, msg.Stream, msg.Topic, text); err != nil {
			log.Printf("failed to send response: %v", err)
		}
		return
	}
	if err := b.client.SendPrivateMessage(ctx, msg.SenderID, text); err != nil {
		log.Printf("failed to send response: %v", err)
	}
}

func (b *Bot) helpText(role int) string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	sb.WriteString("- `help` - Show this message\n")
	sb.WriteString("- `resolve` - Mark the current topic as resolved\n")
	sb.WriteString("- `unresolve` - Mark the current topic as unresolved\n")
	if b.policy.Moderator(role) {
		sb.WriteString("- `purge N` - Delete the last N messages in the current topic\n")
		sb.WriteString("- `purge email@example.com N` - Delete the last N messages from the user in this channel\n")
		sb.WriteString("- `purge email@example.com` - Delete all recent messages from the user in this channel\n")
		sb.WriteString("- `clean` - Delete my own messages in the current topic\n")
		sb.WriteString("- `mute email@example.com` - Mute the user\n")
		sb.WriteString("- `unmute email@example.com` - Unmute the user\n")
		sb.WriteString("- `getnotes email@example.com` - Send me the user's notes privately\n")
		sb.WriteString("- `addnote email@example.com <text>` - Add a note about the user\n")
		sb.WriteString("- `lockdown start` - Freeze posting in all channels\n")
		sb.WriteString("- `lockdown end` - Restore posting permissions\n")
	}
	return sb.String()
}

func (b *Bot) stripMention(content string) string {
	content = strings.TrimSpace(content)
	mention := "@**" + b.self.FullName + "**"
	if strings.HasPrefix(content, mention) {
		content = strings.TrimSpace(strings.TrimPrefix(content, mention))
	}
	return content
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
