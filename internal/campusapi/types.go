package campusapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a notification identifier. The API emits either numbers or strings.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("campusapi: id: %w", err)
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("campusapi: id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the server can match them.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Notification is one admin notification.
type Notification struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time"`
	Type    string `json:"type,omitempty"`
	IsRead  bool   `json:"is_read,omitempty"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	Actor       string `json:"actor"`
	Time        string `json:"time"`
}

// VisitQuery narrows the server-side visit export.
type VisitQuery struct {
	Search       string
	Status       string
	RegisterDate string
}
