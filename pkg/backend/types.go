package backend

// Wire types for the LenaAI chat backend. Decoding failures or missing
// envelopes are treated as transport failures by the client; absent
// optional fields degrade the same way the original page did (placeholder
// text, empty property lists).

// Image is one image reference inside a property's metadata.
type Image struct {
	URL string `json:"url"`
}

// PropertyMetadata carries the listing's media.
type PropertyMetadata struct {
	Images []Image `json:"images"`
}

// Property is one listing entry of a chat response.
type Property struct {
	Description string           `json:"description"`
	PropertyID  string           `json:"property_id"`
	Metadata    PropertyMetadata `json:"metadata"`
}

// ChatResponse is the response shape shared by /langgraph_chat and
// /voice_process.
type ChatResponse struct {
	Message    string     `json:"message"`
	Properties []Property `json:"properties"`
	PropertyID string     `json:"property_id"`
}

// UnitImage is one image of a unit-details response, with a separate
// thumbnail for the album preview grid.
type UnitImage struct {
	ThumbnailURL string `json:"thumbnailUrl"`
	URL          string `json:"url"`
}

// UnitDetails is the response of /units_details/{unitId}.
type UnitDetails struct {
	UnitTitle string      `json:"unitTitle"`
	Images    []UnitImage `json:"images"`
}

type chatRequest struct {
	PhoneNumber string `json:"phone_number"`
	Query       string `json:"query"`
	ClientID    string `json:"client_id"`
	Platform    string `json:"platform"`
	UnitID      string `json:"unit_id,omitempty"`
}
