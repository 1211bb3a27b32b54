// Package session orchestrates chat turns: optimistic local appends, the
// backend round-trip, and folding the response (or a failure notice) back
// into the message log. Both the browser channel and the terminal client
// drive the same controller.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lenaai/lenachat/pkg/backend"
	"github.com/lenaai/lenachat/pkg/identity"
	"github.com/lenaai/lenachat/pkg/logger"
	"github.com/lenaai/lenachat/pkg/store"
	"github.com/lenaai/lenachat/pkg/voice"
)

// FailureReply is appended as a single server text message whenever a
// backend call fails. Failures are terminal for the turn that triggered
// them; nothing is retried.
const FailureReply = "Sorry, something went wrong processing your message. Please try again."

// LikeMessage is the synthetic user turn sent when a property is liked.
const LikeMessage = "I like this Property"

// Backend is the slice of the chat backend the controller needs. The
// concrete client lives in pkg/backend; tests substitute fakes.
type Backend interface {
	SendChatTurn(ctx context.Context, identity, query, unitID string) (*backend.ChatResponse, error)
	SendVoiceTurn(ctx context.Context, identity string, blob []byte) (*backend.ChatResponse, error)
	UnitDetails(ctx context.Context, unitID string) (*backend.UnitDetails, error)
}

// Controller glues identity, store and backend together. Operations may
// run concurrently; the store serializes appends, so turns that settle out
// of order interleave without losing messages.
type Controller struct {
	store        *store.Store
	ids          *identity.Provider
	backend      Backend
	mediaDir     string
	probeTimeout time.Duration
}

func NewController(st *store.Store, ids *identity.Provider, be Backend, mediaDir string, probeTimeout time.Duration) *Controller {
	return &Controller{
		store:        st,
		ids:          ids,
		backend:      be,
		mediaDir:     mediaDir,
		probeTimeout: probeTimeout,
	}
}

// Start resolves the visitor identity and loads its persisted log.
func (c *Controller) Start() []store.Message {
	id := c.ids.GetOrCreate()
	msgs := c.store.Load(id)
	logger.InfoCF("session", "Session started", map[string]interface{}{
		"identity": id, "messages": len(msgs),
	})
	return msgs
}

// Identity returns the current visitor identity.
func (c *Controller) Identity() string {
	return c.ids.GetOrCreate()
}

// Messages returns the current log.
func (c *Controller) Messages() []store.Message {
	return c.store.Messages()
}

// SendText runs one text turn. Empty or whitespace-only input is a silent
// no-op: no message is appended and the backend is not called. Returns
// every message the turn appended, user message included.
func (c *Controller) SendText(ctx context.Context, text string) []store.Message {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return c.runTurn(ctx, text, "")
}

// LikeProperty sends the synthetic like turn for a listing.
func (c *Controller) LikeProperty(ctx context.Context, propertyID string) []store.Message {
	return c.runTurn(ctx, LikeMessage, propertyID)
}

func (c *Controller) runTurn(ctx context.Context, text, unitID string) []store.Message {
	userMsg := store.Message{
		ID:         c.store.NextID(),
		Type:       store.KindText,
		Content:    text,
		Sender:     store.SenderUser,
		PropertyID: unitID,
	}
	c.store.Append(userMsg)

	replies := c.settle(c.backend.SendChatTurn(ctx, c.Identity(), text, unitID))
	c.store.Append(replies...)

	return append([]store.Message{userMsg}, replies...)
}

// SendVoice runs one voice turn from an encoded audio blob. A blob with no
// audio appends nothing and never reaches the backend. The blob is stored
// under the media dir and referenced by the appended voice message; its
// playback duration comes from a bounded probe and may be empty.
func (c *Controller) SendVoice(ctx context.Context, blob []byte) []store.Message {
	if len(blob) == 0 {
		return nil
	}

	duration := voice.ProbeDuration(blob, c.probeTimeout)
	name := fmt.Sprintf("voice_%d.%s", time.Now().UnixNano(), backend.SniffExtension(blob))

	userMsg := store.Message{
		ID:       c.store.NextID(),
		Type:     store.KindVoice,
		Content:  c.saveMedia(name, blob),
		Sender:   store.SenderUser,
		Duration: duration,
	}
	c.store.Append(userMsg)

	replies := c.settle(c.backend.SendVoiceTurn(ctx, c.Identity(), blob))
	c.store.Append(replies...)

	return append([]store.Message{userMsg}, replies...)
}

// SeedFromUnit starts a conversation from a unit deep link: it appends the
// unit's title and album, then runs the like turn for that unit.
func (c *Controller) SeedFromUnit(ctx context.Context, unitID string) []store.Message {
	details, err := c.backend.UnitDetails(ctx, unitID)
	if err != nil {
		logger.WarnCF("session", "Unit seeding failed", map[string]interface{}{
			"unit_id": unitID, "error": err.Error(),
		})
		failure := store.Message{
			ID:      c.store.NextID(),
			Type:    store.KindText,
			Content: FailureReply,
			Sender:  store.SenderServer,
		}
		c.store.Append(failure)
		return []store.Message{failure}
	}

	var seeded []store.Message
	if details.UnitTitle != "" {
		seeded = append(seeded, store.Message{
			ID:         c.store.NextID(),
			Type:       store.KindText,
			Content:    details.UnitTitle,
			Sender:     store.SenderServer,
			PropertyID: unitID,
		})
	}
	if len(details.Images) > 0 {
		album := make([]store.AlbumImage, 0, len(details.Images))
		for _, img := range details.Images {
			preview := img.ThumbnailURL
			if preview == "" {
				preview = img.URL
			}
			album = append(album, store.AlbumImage{URL: preview, Full: img.URL})
		}
		seeded = append(seeded, store.Message{
			ID:         c.store.NextID(),
			Type:       store.KindAlbum,
			Sender:     store.SenderServer,
			Album:      album,
			PropertyID: unitID,
		})
	}
	c.store.Append(seeded...)

	return append(seeded, c.LikeProperty(ctx, unitID)...)
}

// Clear empties the log, removes the snapshot and regenerates the
// identity. Returns the new identity.
func (c *Controller) Clear() string {
	c.store.Clear()
	id := c.ids.Regenerate()
	c.store.SetIdentity(id)
	logger.InfoCF("session", "Chat cleared", map[string]interface{}{"identity": id})
	return id
}

// settle converts a backend result into log messages: the expanded
// response on success, a single failure reply otherwise.
func (c *Controller) settle(resp *backend.ChatResponse, err error) []store.Message {
	if err != nil {
		logger.WarnCF("session", "Turn failed", map[string]interface{}{"error": err.Error()})
		return []store.Message{{
			ID:      c.store.NextID(),
			Type:    store.KindText,
			Content: FailureReply,
			Sender:  store.SenderServer,
		}}
	}
	return backend.Expand(resp, c.store.NextID)
}

// saveMedia writes a voice blob under the media dir and returns the URL
// path the web channel serves it at. On write failure the message keeps an
// empty reference; the turn itself still proceeds.
func (c *Controller) saveMedia(name string, blob []byte) string {
	if c.mediaDir == "" {
		return ""
	}
	if err := os.MkdirAll(c.mediaDir, 0755); err != nil {
		logger.WarnCF("session", "Cannot create media dir", map[string]interface{}{"error": err.Error()})
		return ""
	}
	if err := os.WriteFile(filepath.Join(c.mediaDir, name), blob, 0644); err != nil {
		logger.WarnCF("session", "Cannot store voice blob", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return "/media/" + name
}
