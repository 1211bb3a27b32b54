package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenaai/lenachat/pkg/store"
)

func counter() func() int {
	n := 0
	return func() int {
		n++
		return n
	}
}

func TestExpandMessageDescriptionAndAlbum(t *testing.T) {
	resp := &ChatResponse{
		Message: "M",
		Properties: []Property{{
			Description: "D",
			Metadata: PropertyMetadata{Images: []Image{
				{URL: "u1"}, {URL: "u2"},
			}},
		}},
	}

	msgs := Expand(resp, counter())

	require.Len(t, msgs, 3)
	assert.Equal(t, store.KindText, msgs[0].Type)
	assert.Equal(t, "M", msgs[0].Content)
	assert.Equal(t, store.SenderServer, msgs[0].Sender)
	assert.Equal(t, "D", msgs[1].Content)
	assert.Equal(t, store.KindAlbum, msgs[2].Type)
	assert.Equal(t, []store.AlbumImage{{URL: "u1", Full: "u1"}, {URL: "u2", Full: "u2"}}, msgs[2].Album)
	assert.Equal(t, []int{1, 2, 3}, []int{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestExpandNoPropertiesIsSingleText(t *testing.T) {
	msgs := Expand(&ChatResponse{Message: "hello"}, counter())

	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestExpandMissingMessageUsesPlaceholder(t *testing.T) {
	msgs := Expand(&ChatResponse{}, counter())

	require.Len(t, msgs, 1)
	assert.Equal(t, PlaceholderMessage, msgs[0].Content)
}

func TestExpandSkipsEmptyDescriptionAndEmptyAlbum(t *testing.T) {
	resp := &ChatResponse{
		Message: "M",
		Properties: []Property{
			{Metadata: PropertyMetadata{Images: []Image{{URL: "u"}}}}, // album only
			{Description: "text only"},
			{}, // contributes nothing
		},
	}

	msgs := Expand(resp, counter())

	require.Len(t, msgs, 3)
	assert.Equal(t, store.KindAlbum, msgs[1].Type)
	assert.Equal(t, "text only", msgs[2].Content)
}

func TestExpandPropertyIDFallsBackToResponse(t *testing.T) {
	resp := &ChatResponse{
		Message:    "M",
		PropertyID: "TOP",
		Properties: []Property{
			{Description: "own id", PropertyID: "P1"},
			{Description: "inherits"},
		},
	}

	msgs := Expand(resp, counter())

	require.Len(t, msgs, 3)
	assert.Equal(t, "P1", msgs[1].PropertyID)
	assert.Equal(t, "TOP", msgs[2].PropertyID)
}
