package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := New(dir)
	s.Load("01012345678")
	s.Append(
		Message{ID: s.NextID(), Type: KindText, Content: "hi", Sender: SenderUser},
		Message{ID: s.NextID(), Type: KindText, Content: "hello", Sender: SenderServer},
	)
	s.Append(Message{ID: s.NextID(), Type: KindAlbum, Sender: SenderServer, Album: []AlbumImage{
		{URL: "u1", Full: "f1"},
	}, PropertyID: "P1"})

	loaded := New(dir).Load("01012345678")
	require.Len(t, loaded, 3)
	assert.Equal(t, "hi", loaded[0].Content)
	assert.Equal(t, "hello", loaded[1].Content)
	assert.Equal(t, KindAlbum, loaded[2].Type)
	assert.Equal(t, "P1", loaded[2].PropertyID)
	assert.Equal(t, []AlbumImage{{URL: "u1", Full: "f1"}}, loaded[2].Album)
}

func TestNextIDNeverRepeatsAndReseeds(t *testing.T) {
	dir := t.TempDir()

	s := New(dir)
	s.Load("010")
	seen := map[int]bool{}
	var msgs []Message
	for i := 0; i < 5; i++ {
		id := s.NextID()
		assert.False(t, seen[id])
		seen[id] = true
		msgs = append(msgs, Message{ID: id, Type: KindText, Content: "m", Sender: SenderUser})
	}
	s.Append(msgs...)

	// A fresh store reseeds past every persisted id.
	s2 := New(dir)
	loaded := s2.Load("010")
	next := s2.NextID()
	for _, m := range loaded {
		assert.Greater(t, next, m.ID)
	}
}

func TestLoadMissingSnapshotIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	assert.Empty(t, s.Load("01199999999"))
	assert.Equal(t, 1, s.NextID())
}

func TestLoadCorruptSnapshotIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_010.json"), []byte("{not json"), 0644))

	s := New(dir)
	assert.Empty(t, s.Load("010"))
	assert.Equal(t, 1, s.NextID())
}

func TestClearRemovesSnapshotAndResetsCounter(t *testing.T) {
	dir := t.TempDir()

	s := New(dir)
	s.Load("012")
	s.Append(Message{ID: s.NextID(), Type: KindText, Content: "x", Sender: SenderUser})

	path := filepath.Join(dir, "chat_012.json")
	_, err := os.Stat(path)
	require.NoError(t, err)

	s.Clear()

	assert.Empty(t, s.Messages())
	assert.Equal(t, 1, s.NextID())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendIsRelative(t *testing.T) {
	s := New(t.TempDir())
	s.Load("015")

	// Two logical turns appending interleaved must both survive.
	s.Append(Message{ID: 1, Type: KindText, Content: "a", Sender: SenderUser})
	s.Append(Message{ID: 2, Type: KindText, Content: "b", Sender: SenderUser})
	s.Append(Message{ID: 3, Type: KindText, Content: "a-reply", Sender: SenderServer})

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestMessagesReturnsCopy(t *testing.T) {
	s := New(t.TempDir())
	s.Load("010")
	s.Append(Message{ID: 1, Type: KindText, Content: "x", Sender: SenderUser})

	msgs := s.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "x", s.Messages()[0].Content)
}
