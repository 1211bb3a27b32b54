package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendChatTurnPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/langgraph_chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ChatResponse{Message: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, "DREAM_HOMES", "website")
	resp, err := c.SendChatTurn(context.Background(), "01012345678", "hi there", "")

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, "01012345678", got["phone_number"])
	assert.Equal(t, "hi there", got["query"])
	assert.Equal(t, "DREAM_HOMES", got["client_id"])
	assert.Equal(t, "website", got["platform"])
	_, hasUnit := got["unit_id"]
	assert.False(t, hasUnit, "unit_id must be omitted when empty")
}

func TestSendChatTurnIncludesUnitID(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ChatResponse{Message: "ok"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "X", "website").SendChatTurn(context.Background(), "010", "I like this Property", "U77")

	require.NoError(t, err)
	assert.Equal(t, "U77", got["unit_id"])
}

func TestSendChatTurnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := New(srv.URL, "X", "website").SendChatTurn(context.Background(), "010", "hi", "")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestSendChatTurnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "X", "website").SendChatTurn(context.Background(), "010", "hi", "")

	assert.ErrorIs(t, err, ErrBackend)
}

func TestSendChatTurnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := New(srv.URL, "X", "website").SendChatTurn(context.Background(), "010", "hi", "")

	assert.ErrorIs(t, err, ErrBackend)
}

func TestSendVoiceTurnMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voice_process", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "01155554444", r.FormValue("phone_number"))
		assert.Equal(t, "DREAM_HOMES", r.FormValue("client_id"))
		assert.Equal(t, "website", r.FormValue("platform"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "voice.wav", header.Filename)

		json.NewEncoder(w).Encode(ChatResponse{Message: "heard you"})
	}))
	defer srv.Close()

	// A minimal RIFF/WAVE header is enough for the container sniff.
	blob := append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 32)...)
	resp, err := New(srv.URL, "DREAM_HOMES", "website").SendVoiceTurn(context.Background(), "01155554444", blob)

	require.NoError(t, err)
	assert.Equal(t, "heard you", resp.Message)
}

func TestSendVoiceTurnEmptyBlob(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(srv.URL, "X", "website").SendVoiceTurn(context.Background(), "010", nil)

	assert.ErrorIs(t, err, ErrBackend)
	assert.False(t, called)
}

func TestUnitDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/units_details/U42", r.URL.Path)
		json.NewEncoder(w).Encode(UnitDetails{
			UnitTitle: "Garden View Apartment",
			Images:    []UnitImage{{ThumbnailURL: "t1", URL: "f1"}},
		})
	}))
	defer srv.Close()

	details, err := New(srv.URL, "X", "website").UnitDetails(context.Background(), "U42")

	require.NoError(t, err)
	assert.Equal(t, "Garden View Apartment", details.UnitTitle)
	require.Len(t, details.Images, 1)
	assert.Equal(t, "t1", details.Images[0].ThumbnailURL)
}

func TestSniffExtension(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 32)...)
	assert.Equal(t, "wav", SniffExtension(wav))
	assert.Equal(t, "ogg", SniffExtension(append([]byte("OggS"), make([]byte, 32)...)))
	assert.Equal(t, "wav", SniffExtension([]byte("garbage bytes here")))
}
