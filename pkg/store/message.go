package store

// Message kinds. The wire names match the persisted log of the original
// prototype so old snapshots stay readable.
const (
	KindText  = "text"
	KindVoice = "voice"
	KindAlbum = "imageAlbum"
)

// Message senders.
const (
	SenderUser   = "user"
	SenderServer = "server"
)

// AlbumImage is one entry of an image-album message: a preview URL and the
// full-size URL opened by the album viewer.
type AlbumImage struct {
	URL  string `json:"url"`
	Full string `json:"full"`
}

// Message is the atomic unit of the chat log.
type Message struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Sender  string `json:"sender"`

	// Album holds the image pairs for imageAlbum messages.
	Album []AlbumImage `json:"album,omitempty"`
	// Duration is the playback length of a voice message, "m:ss".
	Duration string `json:"duration,omitempty"`
	// PropertyID correlates the message to a backend listing for later
	// like actions.
	PropertyID string `json:"property_id,omitempty"`
}
