package zulip

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUserNotFound reports an email or id with no matching account.
var ErrUserNotFound = errors.New("user not found")

type Message struct {
	ID          int64
	SenderID    int64
	SenderEmail string
	Type        string // "stream" or "private"
	StreamID    int64
	Stream      string
	Topic       string
	Content     string
}

type User struct {
	ID       int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     int    `json:"role"`
	IsBot    bool   `json:"is_bot"`
}

// Channel is a stream together with its "who may post" group setting.
// CanPost keeps the server's raw JSON: either a bare group id or an
// anonymous group-set object.
type Channel struct {
	ID      int64
	Name    string
	CanPost json.RawMessage
}

// Narrow restricts a message fetch. Empty fields are omitted.
type Narrow struct {
	Stream string
	Topic  string
	Sender string
}

// Client is the capability set the moderation core needs from Zulip.
// Implementations return errors carrying the server's failure message;
// callers convert them to responses at the action boundary.
type Client interface {
	GetMessages(ctx context.Context, narrow Narrow, limit int) ([]Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	SendMessage(ctx context.Context, stream, topic, content string) (int64, error)
	SendPrivateMessage(ctx context.Context, userID int64, content string) error
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateFullName(ctx context.Context, userID int64, name string) error
	RenameTopic(ctx context.Context, messageID int64, newTopic string) error
	ListChannels(ctx context.Context) ([]Channel, error)
	SetPostingPermission(ctx context.Context, channelID int64, perm json.RawMessage) error
	UpdateGroupMembers(ctx context.Context, groupID int64, add, remove []int64) error
}
