package answering

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoAnswer means the answer API responded successfully but had nothing
// to say: an empty body, a literal "null", or an empty event array. It is
// distinct from transport and decode failures so callers can tell "the
// service declined" apart from "the service broke".
var ErrNoAnswer = errors.New("answer api returned no answer")

const (
	DefaultBaseURL        = "https://api.mava.app"
	DefaultRequestTimeout = 20 * time.Second

	contextItems = 5
)

// Source is one citation attached to an answer. Fields keeps the raw
// decoded entry so downstream scoring can probe provider-specific keys.
type Source struct {
	Title  string
	URL    string
	Fields map[string]any
}

// Event is the selected response event. Data keeps the raw payload for
// the same reason Source.Fields does.
type Event struct {
	Kind string
	Data map[string]any
}

// Answer is the parsed outcome of one question.
type Answer struct {
	Text    string
	Sources []Source
	Event   Event
}

type Client struct {
	http    *http.Client
	baseURL string
	teamID  string
	botID   string
	apiKey  string
	timeout time.Duration
}

func NewClient(httpClient *http.Client, baseURL, teamID, botID, apiKey string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		teamID:  strings.TrimSpace(teamID),
		botID:   strings.TrimSpace(botID),
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
	}
}

type askRequest struct {
	ConversationID    string `json:"conversationId"`
	Question          string `json:"question"`
	Stream            bool   `json:"stream"`
	ContextItems      int    `json:"context_items"`
	DocumentRetriever bool   `json:"document_retriever"`
	FollowupRating    bool   `json:"followup_rating"`
	HumanEscalation   bool   `json:"human_escalation"`
}

type rawEvent struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Ask sends one question on the given conversation and returns the parsed
// answer. The request is aborted after the configured timeout; a timeout
// is reported like any other transport failure. No retries are made.
func (c *Client) Ask(ctx context.Context, question, conversationID string) (Answer, error) {
	if c == nil {
		return Answer{}, fmt.Errorf("answer client is not initialized")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(askRequest{
		ConversationID:    conversationID,
		Question:          question,
		Stream:            false,
		ContextItems:      contextItems,
		DocumentRetriever: true,
		FollowupRating:    false,
		HumanEscalation:   false,
	})
	if err != nil {
		return Answer{}, err
	}

	url := fmt.Sprintf("%s/teams/%s/bots/%s/chat-agent", c.baseURL, c.teamID, c.botID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Answer{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("answer api request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Answer{}, fmt.Errorf("answer api read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Answer{}, fmt.Errorf("answer api http %d: %s", resp.StatusCode, bodySnippet(body))
	}

	return parseAnswerBody(body)
}

func parseAnswerBody(body []byte) (Answer, error) {
	text := strings.TrimSpace(string(body))
	if text == "" || text == "null" {
		return Answer{}, ErrNoAnswer
	}

	var events []rawEvent
	if err := json.Unmarshal([]byte(text), &events); err != nil {
		return Answer{}, fmt.Errorf("answer api decode: %w", err)
	}
	chosen, ok := selectEvent(events)
	if !ok {
		return Answer{}, ErrNoAnswer
	}

	answer := Answer{
		Text:    strings.TrimSpace(stringField(chosen.Data, "answer")),
		Sources: parseSources(chosen.Data["sources"]),
		Event:   Event{Kind: chosen.Event, Data: chosen.Data},
	}
	return answer, nil
}

// selectEvent picks the event to surface: "lookup_answer" wins over
// "answer", and an untagged array falls back to its first element. The
// priority mirrors the provider's observed behavior and must not change.
func selectEvent(events []rawEvent) (rawEvent, bool) {
	if len(events) == 0 {
		return rawEvent{}, false
	}
	for _, ev := range events {
		if ev.Event == "lookup_answer" {
			return ev, true
		}
	}
	for _, ev := range events {
		if ev.Event == "answer" {
			return ev, true
		}
	}
	return events[0], true
}

func parseSources(v any) []Source {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Source, 0, len(list))
	for _, entry := range list {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Source{
			Title:  strings.TrimSpace(stringField(fields, "title")),
			URL:    strings.TrimSpace(stringField(fields, "url")),
			Fields: fields,
		})
	}
	return out
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
