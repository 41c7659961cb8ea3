package zulip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RESTClient talks to the Zulip REST API with email/api-key basic auth.
type RESTClient struct {
	base   string
	email  string
	apiKey string
	httpc  *http.Client
}

func NewRESTClient(site, email, apiKey string) *RESTClient {
	return &RESTClient{
		base:   strings.TrimRight(site, "/") + "/api/v1",
		email:  email,
		apiKey: apiKey,
		httpc:  &http.Client{},
	}
}

type apiError struct {
	status int
	code   string
	msg    string
}

func (e *apiError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("api error (HTTP %d)", e.status)
}

// do issues one API call. Non-GET parameters go form-encoded in the
// body, the way the Zulip API expects them.
func (c *RESTClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	u := c.base + path
	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
	} else if len(params) > 0 {
		body = strings.NewReader(params.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var envelope struct {
		Result string `json:"result"`
		Msg    string `json:"msg"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Result != "success" {
		return &apiError{status: resp.StatusCode, code: envelope.Code, msg: envelope.Msg}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// wireMessage is the API shape of a message. display_recipient is a
// stream name for stream messages but a recipient list for private
// ones, so it stays raw until the type is known.
type wireMessage struct {
	ID               int64           `json:"id"`
	SenderID         int64           `json:"sender_id"`
	SenderEmail      string          `json:"sender_email"`
	Type             string          `json:"type"`
	StreamID         int64           `json:"stream_id"`
	DisplayRecipient json.RawMessage `json:"display_recipient"`
	Subject          string          `json:"subject"`
	Content          string          `json:"content"`
}

func (w wireMessage) toMessage() Message {
	m := Message{
		ID:          w.ID,
		SenderID:    w.SenderID,
		SenderEmail: w.SenderEmail,
		Type:        w.Type,
		StreamID:    w.StreamID,
		Topic:       w.Subject,
		Content:     w.Content,
	}
	if w.Type == "stream" {
		_ = json.Unmarshal(w.DisplayRecipient, &m.Stream)
	}
	return m
}

func narrowJSON(narrow Narrow) (string, error) {
	type term struct {
		Operator string `json:"operator"`
		Operand  string `json:"operand"`
	}
	var terms []term
	if narrow.Stream != "" {
		terms = append(terms, term{"stream", narrow.Stream})
	}
	if narrow.Topic != "" {
		terms = append(terms, term{"topic", narrow.Topic})
	}
	if narrow.Sender != "" {
		terms = append(terms, term{"sender", narrow.Sender})
	}
	b, err := json.Marshal(terms)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *RESTClient) GetMessages(ctx context.Context, narrow Narrow, limit int) ([]Message, error) {
	nj, err := narrowJSON(narrow)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("anchor", "newest")
	params.Set("num_before", strconv.Itoa(limit))
	params.Set("num_after", "0")
	params.Set("narrow", nj)
	var out struct {
		Messages []wireMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages", params, &out); err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(out.Messages))
	for _, w := range out.Messages {
		msgs = append(msgs, w.toMessage())
	}
	return msgs, nil
}

func (c *RESTClient) DeleteMessage(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *RESTClient) SendMessage(ctx context.Context, stream, topic, content string) (int64, error) {
	params := url.Values{}
	params.Set("type", "stream")
	params.Set("to", stream)
	params.Set("topic", topic)
	params.Set("content", content)
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/messages", params, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *RESTClient) SendPrivateMessage(ctx context.Context, userID int64, content string) error {
	params := url.Values{}
	params.Set("type", "private")
	params.Set("to", fmt.Sprintf("[%d]", userID))
	params.Set("content", content)
	return c.do(ctx, http.MethodPost, "/messages", params, nil)
}

func (c *RESTClient) GetUser(ctx context.Context, id int64) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/users/"+strconv.FormatInt(id, 10), nil, &out)
	if err != nil {
		return User{}, mapNotFound(err)
	}
	return out.User, nil
}

func (c *RESTClient) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email), nil, &out)
	if err != nil {
		return User{}, mapNotFound(err)
	}
	return out.User, nil
}

// OwnUser identifies the account the client authenticates as.
func (c *RESTClient) OwnUser(ctx context.Context) (User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *RESTClient) UpdateFullName(ctx context.Context, userID int64, name string) error {
	params := url.Values{}
	fn, err := json.Marshal(name)
	if err != nil {
		return err
	}
	params.Set("full_name", string(fn))
	return c.do(ctx, http.MethodPatch, "/users/"+strconv.FormatInt(userID, 10), params, nil)
}

func (c *RESTClient) RenameTopic(ctx context.Context, messageID int64, newTopic string) error {
	params := url.Values{}
	params.Set("topic", newTopic)
	params.Set("propagate_mode", "change_all")
	params.Set("send_notification_to_old_thread", "false")
	params.Set("send_notification_to_new_thread", "false")
	return c.do(ctx, http.MethodPatch, "/messages/"+strconv.FormatInt(messageID, 10), params, nil)
}

func (c *RESTClient) ListChannels(ctx context.Context) ([]Channel, error) {
	var out struct {
		Streams []struct {
			StreamID            int64           `json:"stream_id"`
			Name                string          `json:"name"`
			CanSendMessageGroup json.RawMessage `json:"can_send_message_group"`
		} `json:"streams"`
	}
	params := url.Values{}
	params.Set("include_public", "true")
	params.Set("include_web_public", "true")
	if err := c.do(ctx, http.MethodGet, "/streams", params, &out); err != nil {
		return nil, err
	}
	channels := make([]Channel, 0, len(out.Streams))
	for _, s := range out.Streams {
		channels = append(channels, Channel{ID: s.StreamID, Name: s.Name, CanPost: s.CanSendMessageGroup})
	}
	return channels, nil
}

func (c *RESTClient) SetPostingPermission(ctx context.Context, channelID int64, perm json.RawMessage) error {
	params := url.Values{}
	params.Set("can_send_message_group", fmt.Sprintf(`{"new":%s}`, perm))
	return c.do(ctx, http.MethodPatch, "/streams/"+strconv.FormatInt(channelID, 10), params, nil)
}

func (c *RESTClient) UpdateGroupMembers(ctx context.Context, groupID int64, add, remove []int64) error {
	params := url.Values{}
	addJSON, err := json.Marshal(emptyIfNil(add))
	if err != nil {
		return err
	}
	removeJSON, err := json.Marshal(emptyIfNil(remove))
	if err != nil {
		return err
	}
	params.Set("add", string(addJSON))
	params.Set("delete", string(removeJSON))
	return c.do(ctx, http.MethodPost, "/user_groups/"+strconv.FormatInt(groupID, 10)+"/members", params, nil)
}

func emptyIfNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func mapNotFound(err error) error {
	var ae *apiError
	if errors.As(err, &ae) && (ae.status == http.StatusNotFound || strings.Contains(strings.ToLower(ae.msg), "no such user")) {
		return ErrUserNotFound
	}
	return err
}
