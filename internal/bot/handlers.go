package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"mod-bot/internal/lockdown"
	"mod-bot/internal/zulip"
)

const (
	mutedSuffix    = " (muted)"
	resolvedPrefix = "✔ "
)

// purge deletes up to count newest messages matching narrow. Each
// deletion is best-effort; the reported count is confirmed deletions
// only. A failed fetch aborts with no deletions.
func (b *Bot) purge(ctx context.Context, narrow zulip.Narrow, count int, email string) string {
	if count > b.maxPurge {
		count = b.maxPurge
	}
	msgs, err := b.client.GetMessages(ctx, narrow, count)
	if err != nil {
		return "Error while purging messages: " + err.Error()
	}
	deleted := 0
	for _, m := range msgs {
		if err := b.client.DeleteMessage(ctx, m.ID); err != nil {
			log.Printf("failed to delete message %d: %v", m.ID, err)
			continue
		}
		deleted++
	}
	if email != "" {
		return fmt.Sprintf("Successfully deleted %d messages from %s.", deleted, email)
	}
	return fmt.Sprintf("Successfully deleted %d messages.", deleted)
}

// clean removes the bot's own messages from the current topic.
func (b *Bot) clean(ctx context.Context, msg zulip.Message) string {
	narrow := zulip.Narrow{Stream: msg.Stream, Topic: msg.Topic, Sender: b.self.Email}
	msgs, err := b.client.GetMessages(ctx, narrow, b.maxPurge)
	if err != nil {
		return "Error while cleaning messages: " + err.Error()
	}
	deleted := 0
	for _, m := range msgs {
		if err := b.client.DeleteMessage(ctx, m.ID); err != nil {
			log.Printf("failed to delete message %d: %v", m.ID, err)
			continue
		}
		deleted++
	}
	return fmt.Sprintf("Successfully deleted %d of my messages.", deleted)
}

// Sweep runs the clean path for each stream without a topic filter.
// It backs the scheduled cleanup job.
func (b *Bot) Sweep(ctx context.Context, streams []string) error {
	var firstErr error
	for _, stream := range streams {
		narrow := zulip.Narrow{Stream: stream, Sender: b.self.Email}
		msgs, err := b.client.GetMessages(ctx, narrow, b.maxPurge)
		if err != nil {
			log.Printf("sweep: failed to fetch messages in %s: %v", stream, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted := 0
		for _, m := range msgs {
			if err := b.client.DeleteMessage(ctx, m.ID); err != nil {
				log.Printf("sweep: failed to delete message %d: %v", m.ID, err)
				continue
			}
			deleted++
		}
		log.Printf("sweep: deleted %d of my messages in %s", deleted, stream)
	}
	return firstErr
}

func (b *Bot) mute(ctx context.Context, email string) string {
	if b.groupID == 0 {
		return "Members group is not configured."
	}
	// Resolve before any mutation so an invalid target changes nothing.
	user, err := b.client.GetUserByEmail(ctx, email)
	if errors.Is(err, zulip.ErrUserNotFound) {
		return "Could not find user with email: " + email
	}
	if err != nil {
		return "Error while muting user: " + err.Error()
	}
	if err := b.client.UpdateGroupMembers(ctx, b.groupID, nil, []int64{user.ID}); err != nil {
		return "Error while muting user: " + err.Error()
	}
	if !strings.Contains(user.FullName, mutedSuffix) {
		if err := b.client.UpdateFullName(ctx, user.ID, user.FullName+mutedSuffix); err != nil {
			return "Error while muting user: " + err.Error()
		}
	}
	if err := b.client.SendPrivateMessage(ctx, user.ID, "You have been muted by a moderator and cannot post until you are unmuted."); err != nil {
		log.Printf("failed to notify muted user %d: %v", user.ID, err)
	}
	return "Muted " + email + "."
}

func (b *Bot) unmute(ctx context.Context, email string) string {
	if b.groupID == 0 {
		return "Members group is not configured."
	}
	user, err := b.client.GetUserByEmail(ctx, email)
	if errors.Is(err, zulip.ErrUserNotFound) {
		return "Could not find user with email: " + email
	}
	if err != nil {
		return "Error while unmuting user: " + err.Error()
	}
	if err := b.client.UpdateGroupMembers(ctx, b.groupID, []int64{user.ID}, nil); err != nil {
		return "Error while unmuting user: " + err.Error()
	}
	// Strip only the mute marker; any other name changes stay as-is.
	if strings.Contains(user.FullName, mutedSuffix) {
		restored := strings.Replace(user.FullName, mutedSuffix, "", 1)
		if err := b.client.UpdateFullName(ctx, user.ID, restored); err != nil {
			return "Error while unmuting user: " + err.Error()
		}
	}
	if err := b.client.SendPrivateMessage(ctx, user.ID, "You have been unmuted and can post again."); err != nil {
		log.Printf("failed to notify unmuted user %d: %v", user.ID, err)
	}
	return "Unmuted " + email + "."
}

// getNotes sends the notes privately to the requester; the public
// response only acknowledges that they were sent.
func (b *Bot) getNotes(ctx context.Context, msg zulip.Message, email string) string {
	user, err := b.client.GetUserByEmail(ctx, email)
	if errors.Is(err, zulip.ErrUserNotFound) {
		return "Could not find user with email: " + email
	}
	if err != nil {
		return "Error while fetching notes: " + err.Error()
	}
	list, err := b.notes.List(user.ID)
	if err != nil {
		return "Error while fetching notes: " + err.Error()
	}
	var private string
	if len(list) == 0 {
		private = "No notes found for " + email + "."
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Notes for %s:\n", email)
		for i, note := range list {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, note)
		}
		private = sb.String()
	}
	if err := b.client.SendPrivateMessage(ctx, msg.SenderID, private); err != nil {
		return "Error while fetching notes: " + err.Error()
	}
	return "Notes for " + email + " sent privately."
}

func (b *Bot) addNote(ctx context.Context, email, text string) string {
	user, err := b.client.GetUserByEmail(ctx, email)
	if errors.Is(err, zulip.ErrUserNotFound) {
		return "Could not find user with email: " + email
	}
	if err != nil {
		return "Error while adding note: " + err.Error()
	}
	if err := b.notes.Append(user.ID, text); err != nil {
		return "Error while adding note: " + err.Error()
	}
	return "Added note for " + email + "."
}

// resolveTopic renames the current topic by adding or removing the
// resolved marker. The rename API needs a message id in the topic, so
// a placeholder is sent first and removed afterwards even when the
// rename fails.
func (b *Bot) resolveTopic(ctx context.Context, msg zulip.Message, resolve bool) string {
	if msg.Type != "stream" {
		return "This command only works in a channel topic."
	}
	action := "resolving topic"
	if !resolve {
		action = "unresolving topic"
	}
	var newTopic string
	if resolve {
		if strings.HasPrefix(msg.Topic, resolvedPrefix) {
			return "Topic is already resolved."
		}
		newTopic = resolvedPrefix + msg.Topic
	} else {
		if !strings.HasPrefix(msg.Topic, resolvedPrefix) {
			return "Topic is not resolved."
		}
		newTopic = strings.TrimPrefix(msg.Topic, resolvedPrefix)
	}

	placeholderID, err := b.client.SendMessage(ctx, msg.Stream, msg.Topic, "Updating topic…")
	if err != nil {
		return "Error while " + action + ": " + err.Error()
	}
	renameErr := b.client.RenameTopic(ctx, placeholderID, newTopic)
	if err := b.client.DeleteMessage(ctx, placeholderID); err != nil {
		log.Printf("failed to delete placeholder message %d: %v", placeholderID, err)
	}
	if renameErr != nil {
		return "Error while " + action + ": " + renameErr.Error()
	}
	if resolve {
		return "Topic marked as resolved."
	}
	return "Topic marked as unresolved."
}

// lockdownStart removes the members group from every channel's posting
// permission and snapshots the originals in one write. A second start
// while a snapshot exists is rejected: overwriting it would lose the
// pre-lockdown permissions for good.
func (b *Bot) lockdownStart(ctx context.Context) string {
	if b.groupID == 0 {
		return "Members group is not configured."
	}
	snap, err := b.lockdown.Load()
	if err != nil {
		return "Error while starting lockdown: " + err.Error()
	}
	if len(snap) > 0 {
		return "Lockdown is already active. End it before starting a new one."
	}
	channels, err := b.client.ListChannels(ctx)
	if err != nil {
		return "Error while starting lockdown: " + err.Error()
	}
	var entries []lockdown.Entry
	var applyErr error
	for _, ch := range channels {
		newPerm, changed, err := zulip.RemoveGroupFromSetting(ch.CanPost, b.groupID)
		if err != nil {
			log.Printf("lockdown: skipping channel %s: %v", ch.Name, err)
			continue
		}
		if !changed {
			continue
		}
		if err := b.client.SetPostingPermission(ctx, ch.ID, newPerm); err != nil {
			log.Printf("lockdown: failed to update channel %s: %v", ch.Name, err)
			if applyErr == nil {
				applyErr = err
			}
			continue
		}
		entries = append(entries, lockdown.Entry{ChannelID: ch.ID, ChannelName: ch.Name, Permission: ch.CanPost})
	}
	if err := b.lockdown.Save(entries); err != nil {
		return "Error while starting lockdown: " + err.Error()
	}
	if applyErr != nil {
		return fmt.Sprintf("Error while starting lockdown: %v (locked %d channels)", applyErr, len(entries))
	}
	return fmt.Sprintf("Lockdown started: updated %d channels.", len(entries))
}

// lockdownEnd restores every snapshotted permission verbatim. Channels
// whose restore fails stay in the snapshot so a retry still knows
// their original state.
func (b *Bot) lockdownEnd(ctx context.Context) string {
	snap, err := b.lockdown.Load()
	if err != nil {
		return "Error while ending lockdown: " + err.Error()
	}
	if len(snap) == 0 {
		return "No active lockdown."
	}
	var failed []lockdown.Entry
	var restoreErr error
	restored := 0
	for _, e := range snap {
		if err := b.client.SetPostingPermission(ctx, e.ChannelID, e.Permission); err != nil {
			log.Printf("lockdown: failed to restore channel %s: %v", e.ChannelName, err)
			if restoreErr == nil {
				restoreErr = err
			}
			failed = append(failed, e)
			continue
		}
		restored++
	}
	if err := b.lockdown.Save(failed); err != nil {
		return "Error while ending lockdown: " + err.Error()
	}
	if restoreErr != nil {
		return fmt.Sprintf("Error while ending lockdown: %v (restored %d of %d channels)", restoreErr, restored, len(snap))
	}
	return fmt.Sprintf("Lockdown ended: restored %d channels.", restored)
}
