package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidTag(t *testing.T) {
	for _, tag := range Tags {
		assert.True(t, ValidTag(tag))
	}
	assert.False(t, ValidTag("urgent"))
	assert.False(t, ValidTag(""))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
}

func TestMessageIDsSortByCreation(t *testing.T) {
	early := NewMessageID(time.UnixMilli(1_700_000_000_000))
	late := NewMessageID(time.UnixMilli(1_700_000_060_000))

	assert.True(t, early < late, "ids must order by creation time")
	assert.Contains(t, early, "msg-1700000000000-")
}

func TestMatches(t *testing.T) {
	msg := Message{ID: "msg-1-abc", UserName: "Neko", Content: "Hello World"}

	assert.True(t, msg.Matches(""))
	assert.True(t, msg.Matches("hello"))
	assert.True(t, msg.Matches("neko"))
	assert.True(t, msg.Matches("msg-1"))
	assert.False(t, msg.Matches("goodbye"))
}
