package kol

import (
	"strings"
	"testing"
)

func TestSplitMessageShortMessageIsUntouched(t *testing.T) {
	parts := splitMessage("hello there", messageLimit)
	if len(parts) != 1 || parts[0] != "hello there" {
		t.Fatalf("unexpected parts: %v", parts)
	}
}

func TestSplitMessageChunksLongMessages(t *testing.T) {
	long := strings.Repeat("abcde ", 100)
	parts := splitMessage(long, messageLimit)

	if len(parts) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(parts))
	}
	var rejoined strings.Builder
	for _, part := range parts {
		if len(part) > messageLimit {
			t.Fatalf("chunk exceeds the limit: %d", len(part))
		}
		rejoined.WriteString(part)
	}
	if rejoined.String() != long {
		t.Fatalf("chunks do not reassemble into the original message")
	}
}

func TestSplitMessageKeepsEntitiesWhole(t *testing.T) {
	// An ampersand-heavy message must never split an escaped entity across
	// a chunk boundary.
	long := strings.Repeat("fish & chips ", 40)
	parts := splitMessage(long, 50)

	var rejoined strings.Builder
	for _, part := range parts {
		if strings.Contains(part, "&amp;") {
			t.Fatalf("chunk leaked an escaped entity: %q", part)
		}
		rejoined.WriteString(part)
	}
	if rejoined.String() != long {
		t.Fatalf("chunks do not reassemble into the original message")
	}
}
