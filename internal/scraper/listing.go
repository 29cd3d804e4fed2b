// Package scraper fetches classified-ad pages linked in chat messages and
// extracts a normalized listing record from them, plus a bounded downloader
// for the listing's photos. Extraction is heuristic by design: a page that
// is not really a listing yields partial or empty fields, never an error.
package scraper

// maxDescriptionChars caps the listing description before it is put in
// front of the chat model.
const maxDescriptionChars = 1500

// Listing is a normalized classified-ad record.
type Listing struct {
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Price       string   `json:"price,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// ImageData is one downloaded listing photo.
type ImageData struct {
	Data     []byte
	MIMEType string
}

func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionChars {
		return s
	}
	return string(runes[:maxDescriptionChars])
}
