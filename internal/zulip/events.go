package zulip

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// ErrBadEventQueue means the server dropped our queue; callers should
// register a fresh one and continue.
var ErrBadEventQueue = errors.New("event queue expired")

type Event struct {
	ID      int64
	Message *Message
	Flags   []string
}

// RegisterQueue creates a long-poll queue delivering message events.
func (c *RESTClient) RegisterQueue(ctx context.Context) (string, int64, error) {
	params := url.Values{}
	params.Set("event_types", `["message"]`)
	params.Set("all_public_streams", "true")
	var out struct {
		QueueID     string `json:"queue_id"`
		LastEventID int64  `json:"last_event_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", params, &out); err != nil {
		return "", 0, err
	}
	return out.QueueID, out.LastEventID, nil
}

// Events blocks until the queue has events past lastEventID.
func (c *RESTClient) Events(ctx context.Context, queueID string, lastEventID int64) ([]Event, error) {
	params := url.Values{}
	params.Set("queue_id", queueID)
	params.Set("last_event_id", strconv.FormatInt(lastEventID, 10))
	var out struct {
		Events []struct {
			ID      int64        `json:"id"`
			Type    string       `json:"type"`
			Message *wireMessage `json:"message"`
			Flags   []string     `json:"flags"`
		} `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/events", params, &out); err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.code == "BAD_EVENT_QUEUE_ID" {
			return nil, ErrBadEventQueue
		}
		return nil, err
	}
	events := make([]Event, 0, len(out.Events))
	for _, e := range out.Events {
		ev := Event{ID: e.ID, Flags: e.Flags}
		if e.Type == "message" && e.Message != nil {
			m := e.Message.toMessage()
			ev.Message = &m
		}
		events = append(events, ev)
	}
	return events, nil
}
