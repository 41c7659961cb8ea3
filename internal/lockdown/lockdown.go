package lockdown

import "encoding/json"

// Entry records one channel's posting permission as it was before the
// lockdown touched it. Permission keeps the raw JSON shape (bare group
// id or group-set object) so restoration re-applies it byte-exact.
type Entry struct {
	ChannelID   int64           `json:"channel_id"`
	ChannelName string          `json:"channel_name"`
	Permission  json.RawMessage `json:"permission"`
}

// Repository persists the lockdown snapshot as one document.
// Save(nil) clears it; an empty Load means no lockdown is active.
type Repository interface {
	Save(entries []Entry) error
	Load() ([]Entry, error)
}
