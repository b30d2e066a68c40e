package redisstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nekoinbox/backend/internal/models"
	"github.com/nekoinbox/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submission(content string) models.Submission {
	return models.Submission{
		Type:     "feedback",
		UserName: "neko",
		UserID:   "u-1",
		Content:  content,
	}
}

func TestCreateStampsDefaults(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("hello"))
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, 0, msg.Likes)
	assert.Equal(t, 0, msg.Dislikes)
	assert.Equal(t, 0, msg.Reports)
	assert.Equal(t, models.TagUnprocessed, msg.Tag)
	assert.Empty(t, msg.Replies)

	got, err := store.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, msg.ID, got.ID)

	global, err := store.readIndex(ctx, globalIndexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{msg.ID}, global)

	tagged, err := store.readIndex(ctx, tagIndexKey(models.TagUnprocessed))
	require.NoError(t, err)
	assert.Equal(t, []string{msg.ID}, tagged)
}

func TestGetMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore()

	msg, err := store.Get(context.Background(), "msg-0-nothing")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestVoteIncrementsExactlyOneCounter(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("count me"))
	require.NoError(t, err)

	updated, err := store.Vote(ctx, msg.ID, models.VoteLike)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, 0, updated.Dislikes)

	updated, err = store.Vote(ctx, msg.ID, models.VoteDislike)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, 1, updated.Dislikes)
}

func TestVoteUnknownMessage(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Vote(context.Background(), "msg-0-nothing", models.VoteLike)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestConcurrentVotesLoseNothing(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("race me"))
	require.NoError(t, err)

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Vote(ctx, msg.ID, models.VoteLike)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, got.Likes)
	assert.Equal(t, 0, got.Dislikes)
}

func TestReportIncrements(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("report me"))
	require.NoError(t, err)

	updated, err := store.Report(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Reports)

	updated, err = store.Report(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Reports)
}

func TestAddReplyAppendsInOrder(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("talk to me"))
	require.NoError(t, err)

	first, err := store.AddReply(ctx, msg.ID, "first answer")
	require.NoError(t, err)
	second, err := store.AddReply(ctx, msg.ID, "second answer")
	require.NoError(t, err)

	got, err := store.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, first.ID, got.Replies[0].ID)
	assert.Equal(t, second.ID, got.Replies[1].ID)
	assert.Equal(t, "first answer", got.Replies[0].Content)

	_, err = store.AddReply(ctx, "msg-0-nothing", "into the void")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

// assertInExactlyOneTagIndex checks the relocation invariant: the id
// appears in the index for its current tag and in no other.
func assertInExactlyOneTagIndex(t *testing.T, store *MessageStore, id string, current models.Tag) {
	t.Helper()
	ctx := context.Background()
	for _, tag := range models.Tags {
		ids, err := store.readIndex(ctx, tagIndexKey(tag))
		require.NoError(t, err)
		count := 0
		for _, existing := range ids {
			if existing == id {
				count++
			}
		}
		if tag == current {
			assert.Equal(t, 1, count, "tag %s should reference %s once", tag, id)
		} else {
			assert.Equal(t, 0, count, "tag %s should not reference %s", tag, id)
		}
	}
}

func TestSetTagRelocates(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("tag me"))
	require.NoError(t, err)

	sequence := []models.Tag{
		models.TagInProgress,
		models.TagAccepted,
		models.TagRejected,
		models.TagUnprocessed,
		models.TagCompleted,
	}
	for _, tag := range sequence {
		updated, err := store.SetTag(ctx, msg.ID, tag)
		require.NoError(t, err)
		assert.Equal(t, tag, updated.Tag)
		assertInExactlyOneTagIndex(t, store, msg.ID, tag)
	}

	// The global index never changes across relocations.
	global, err := store.readIndex(ctx, globalIndexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{msg.ID}, global)
}

func TestSetTagSameTagIsNoop(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("leave me"))
	require.NoError(t, err)

	updated, err := store.SetTag(ctx, msg.ID, models.TagUnprocessed)
	require.NoError(t, err)
	assert.Equal(t, models.TagUnprocessed, updated.Tag)

	// Still exactly one entry, not a duplicate from a re-prepend.
	assertInExactlyOneTagIndex(t, store, msg.ID, models.TagUnprocessed)
}

func TestDeleteCascades(t *testing.T) {
	store, kv := newTestStore()
	ctx := context.Background()

	msg, err := store.Create(ctx, submission("delete me"))
	require.NoError(t, err)
	_, err = store.AddReply(ctx, msg.ID, "soon gone")
	require.NoError(t, err)
	_, err = store.SetTag(ctx, msg.ID, models.TagRejected)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, msg.ID))

	got, err := store.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, kv.has(messageKey(msg.ID)))

	global, err := store.readIndex(ctx, globalIndexKey)
	require.NoError(t, err)
	assert.NotContains(t, global, msg.ID)

	for _, tag := range models.Tags {
		ids, err := store.readIndex(ctx, tagIndexKey(tag))
		require.NoError(t, err)
		assert.NotContains(t, ids, msg.ID)
	}

	assert.True(t, errors.Is(store.Delete(ctx, msg.ID), repository.ErrNotFound))
}
