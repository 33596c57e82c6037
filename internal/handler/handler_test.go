package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
)

func TestExternalID(t *testing.T) {
	assert.Equal(t, "12345", externalID(&tele.User{ID: 12345}))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", displayName(&tele.User{Username: "alice", FirstName: "Alice"}))
	assert.Equal(t, "Alice Smith", displayName(&tele.User{FirstName: "Alice", LastName: "Smith"}))
	assert.Equal(t, "Alice", displayName(&tele.User{FirstName: "Alice"}))
}

func TestMessageLink(t *testing.T) {
	assert.Empty(t, messageLink(nil))

	public := &tele.Message{
		ID:   42,
		Chat: &tele.Chat{Username: "mychannel", Type: tele.ChatSuperGroup},
	}
	assert.Equal(t, "https://t.me/mychannel/42", messageLink(public))

	private := &tele.Message{
		ID:   42,
		Chat: &tele.Chat{ID: -1001234567890, Type: tele.ChatSuperGroup},
	}
	assert.Equal(t, "https://t.me/c/1234567890/42", messageLink(private))

	dm := &tele.Message{ID: 42, Chat: &tele.Chat{ID: 555, Type: tele.ChatPrivate}}
	assert.Empty(t, messageLink(dm))
}
