package backend

import "github.com/lenaai/lenachat/pkg/store"

// PlaceholderMessage is shown when a response carries no top-level text.
const PlaceholderMessage = "(No message received)"

// Expand turns a chat response into log messages, deterministically and
// order-preserving: the top-level text first, then per property its
// description (when non-empty) followed by an image album (when it has at
// least one image). Property messages carry the entry's property id,
// falling back to the response-level id when the entry has none.
func Expand(resp *ChatResponse, nextID func() int) []store.Message {
	text := resp.Message
	if text == "" {
		text = PlaceholderMessage
	}

	out := []store.Message{{
		ID:      nextID(),
		Type:    store.KindText,
		Content: text,
		Sender:  store.SenderServer,
	}}

	for _, prop := range resp.Properties {
		propID := prop.PropertyID
		if propID == "" {
			propID = resp.PropertyID
		}

		if prop.Description != "" {
			out = append(out, store.Message{
				ID:         nextID(),
				Type:       store.KindText,
				Content:    prop.Description,
				Sender:     store.SenderServer,
				PropertyID: propID,
			})
		}

		if len(prop.Metadata.Images) > 0 {
			album := make([]store.AlbumImage, 0, len(prop.Metadata.Images))
			for _, img := range prop.Metadata.Images {
				album = append(album, store.AlbumImage{URL: img.URL, Full: img.URL})
			}
			out = append(out, store.Message{
				ID:         nextID(),
				Type:       store.KindAlbum,
				Sender:     store.SenderServer,
				Album:      album,
				PropertyID: propID,
			})
		}
	}

	return out
}
