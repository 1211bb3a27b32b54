// Package backend is a thin client for the remote LenaAI chat service:
// one JSON endpoint for text turns, one multipart endpoint for voice
// turns, and a unit-details lookup used by unit deep links.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/lenaai/lenachat/pkg/logger"
)

// ErrBackend marks any transport-level failure: network error, non-2xx
// status, or a response body that does not decode into the schema.
var ErrBackend = errors.New("backend request failed")

// Client talks to one LenaAI backend on behalf of one tenant. The client
// scope and platform marker are fixed at construction; the visitor
// identity is passed per call.
type Client struct {
	baseURL  string
	clientID string
	platform string
	http     *http.Client
}

func New(baseURL, clientID, platform string) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		platform: platform,
		http:     &http.Client{},
	}
}

// ClientID returns the tenant scope the client was built with.
func (c *Client) ClientID() string { return c.clientID }

// SendChatTurn posts one free-text turn. unitID is optional and correlates
// the turn to a listing (like actions, unit-link seeding).
func (c *Client) SendChatTurn(ctx context.Context, identity, query, unitID string) (*ChatResponse, error) {
	body, err := json.Marshal(chatRequest{
		PhoneNumber: identity,
		Query:       query,
		ClientID:    c.clientID,
		Platform:    c.platform,
		UnitID:      unitID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/langgraph_chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "chat")
}

// SendVoiceTurn uploads an encoded audio blob as multipart form data. The
// blob's container is sniffed to pick a filename and content type; unknown
// containers are sent as wav, which is what the local recorder produces.
func (c *Client) SendVoiceTurn(ctx context.Context, identity string, blob []byte) (*ChatResponse, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty audio blob", ErrBackend)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("phone_number", identity)
	_ = mw.WriteField("client_id", c.clientID)
	_ = mw.WriteField("platform", c.platform)

	fw, err := mw.CreateFormFile("file", "voice."+SniffExtension(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if _, err := fw.Write(blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/voice_process", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, "voice")
}

// UnitDetails fetches the listing behind a unit deep link.
func (c *Client) UnitDetails(ctx context.Context, unitID string) (*UnitDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/units_details/"+unitID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WarnCF("backend", "Unit details request failed", map[string]interface{}{
			"unit_id": unitID, "request_id": reqID, "error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	var details UnitDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrBackend, err)
	}
	return &details, nil
}

func (c *Client) do(req *http.Request, kind string) (*ChatResponse, error) {
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WarnCF("backend", "Request failed", map[string]interface{}{
			"kind": kind, "request_id": reqID, "error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WarnCF("backend", "Request returned error status", map[string]interface{}{
			"kind": kind, "request_id": reqID, "status": resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrBackend, err)
	}

	var out ChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrBackend, err)
	}

	logger.DebugCF("backend", "Turn completed", map[string]interface{}{
		"kind": kind, "request_id": reqID, "properties": len(out.Properties),
	})
	return &out, nil
}

// SniffExtension guesses the container of an audio blob from its magic
// bytes. Browser recorders commonly produce webm/ogg; the local pipeline
// produces wav, which is also the fallback.
func SniffExtension(blob []byte) string {
	kind, err := filetype.Match(blob)
	if err != nil || kind == filetype.Unknown {
		return "wav"
	}
	switch kind {
	case matchers.TypeWav, matchers.TypeMp3, matchers.TypeOgg, matchers.TypeWebm, matchers.TypeM4a, matchers.TypeFlac:
		return kind.Extension
	default:
		return "wav"
	}
}
