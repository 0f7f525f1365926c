package kol

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/loathers/cagebot/internal/app/replies"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

// The chat transport caps messages around 260 characters and injects
// spaces into 20+ character words; 245 leaves headroom.
const messageLimit = 245

// Whisper is one inbound chat message worth handling: a private whisper
// or a post in the hobopolis channel.
type Whisper struct {
	Who     sewer.Player
	Text    string
	Private bool
	API     bool
}

// FetchNewWhispers polls the chat endpoint from the last-seen cursor and
// acknowledges every private message immediately, so senders know their
// command was queued even when a long run is in progress.
func (c *Client) FetchNewWhispers(ctx context.Context) []Whisper {
	c.mu.Lock()
	cursor := c.chatCursor
	c.mu.Unlock()
	if cursor == "" {
		cursor = "0"
	}

	body := c.visit(ctx, "newchatmessages.php", url.Values{
		"j":        {"1"},
		"lasttime": {cursor},
	})
	if body == "" {
		return nil
	}

	if last := gjson.Get(body, "last").String(); last != "" {
		c.mu.Lock()
		c.chatCursor = last
		c.mu.Unlock()
	}

	var whispers []Whisper
	gjson.Get(body, "msgs").ForEach(func(_, msg gjson.Result) bool {
		msgType := msg.Get("type").String()
		private := msgType == "private"
		if !private && !(msgType == "public" && msg.Get("channel").String() == "hobopolis") {
			return true
		}

		whispers = append(whispers, Whisper{
			Who: sewer.Player{
				ID:   msg.Get("who.id").String(),
				Name: msg.Get("who.name").String(),
			},
			Text:    html.UnescapeString(msg.Get("msg").String()),
			Private: private,
			API:     strings.Contains(msg.Get("msg").String(), ".api"),
		})
		return true
	})

	for _, whisper := range whispers {
		if !whisper.Private {
			continue
		}
		if whisper.API {
			c.SendMessage(ctx, whisper.Who, replies.NotifyJSON(replies.StatusSeen, ""))
		} else {
			c.SendMessage(ctx, whisper.Who, "Message acknowledged.")
		}
	}

	return whispers
}

// splitMessage chunks a message to fit the chat limit without splitting an
// HTML entity across a boundary.
func splitMessage(message string, limit int) []string {
	encoded := html.EscapeString(message)

	var parts []string
	for len(encoded) > limit {
		end := limit
		if idx := strings.LastIndexByte(encoded[:end], '&'); idx >= 0 && !strings.Contains(encoded[idx:end], ";") {
			end = idx
		}
		parts = append(parts, html.UnescapeString(encoded[:end]))
		encoded = encoded[end:]
	}
	return append(parts, html.UnescapeString(encoded))
}
