package webhook

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// GitHub delivery headers and event names.
const (
	EventHeader    = "X-GitHub-Event"
	DeliveryHeader = "X-GitHub-Delivery"

	EventPing = "ping"
	EventPush = "push"
)

const branchRefPrefix = "refs/heads/"

// PushEvent is the part of a push payload the deployer needs.
type PushEvent struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
		CloneURL string `json:"clone_url"`
	} `json:"repository"`
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
}

// Branch returns the pushed branch, or "" for tag pushes.
func (e PushEvent) Branch() string {
	b, ok := strings.CutPrefix(e.Ref, branchRefPrefix)
	if !ok {
		return ""
	}
	return b
}

// ParsePush decodes a push payload. Form-encoded deliveries carry the JSON
// in the "payload" field.
func ParsePush(contentType string, body []byte) (PushEvent, error) {
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return PushEvent{}, fmt.Errorf("parsing form payload: %w", err)
		}
		body = []byte(values.Get("payload"))
	}
	var ev PushEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return PushEvent{}, fmt.Errorf("decoding push payload: %w", err)
	}
	return ev, nil
}
