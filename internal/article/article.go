// Package article defines the generated-article document model.
// Documents are produced by a generate.ArticleService and owned by the
// reading session; the knowledge layer only reads them and patches media
// references on individual sections.
package article

// Section is one heading+content block of a generated article. A section
// may carry an ImagePrompt describing the illustration the model suggested
// for it; media URLs are filled in later by the generation queue.
type Section struct {
	Heading     string `json:"heading"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
}

// NeedsMedia reports whether the section has a prompt but no media yet.
func (s Section) NeedsMedia() bool {
	return s.ImagePrompt != "" && s.ImageURL == "" && s.VideoURL == ""
}

// TimelineEvent is an optional dated entry on an article's timeline.
type TimelineEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// RelatedTopic is a follow-up suggestion attached to a reading session.
type RelatedTopic struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason,omitempty"`
}

// ChatMessage is one turn of the reading-session chat.
type ChatMessage struct {
	Role  string     `json:"role"` // "user" or "model"
	Parts []ChatPart `json:"parts"`
}

type ChatPart struct {
	Text string `json:"text"`
}

// Document is a full generated article.
type Document struct {
	Title        string          `json:"title"`
	Introduction string          `json:"introduction"`
	Sections     []Section       `json:"sections"`
	Conclusion   string          `json:"conclusion"`
	Timeline     []TimelineEvent `json:"timeline,omitempty"`
}

// MissingMedia returns the indices of all sections that have a prompt and
// no media yet, in document order.
func (d *Document) MissingMedia() []int {
	if d == nil {
		return nil
	}
	var idxs []int
	for i, s := range d.Sections {
		if s.NeedsMedia() {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// SetSectionImage patches the image URL of the section at idx.
// Returns false if idx is out of range.
func (d *Document) SetSectionImage(idx int, url string) bool {
	if d == nil || idx < 0 || idx >= len(d.Sections) {
		return false
	}
	d.Sections[idx].ImageURL = url
	return true
}

// SetSectionVideo patches the video URL of the section at idx.
// Returns false if idx is out of range.
func (d *Document) SetSectionVideo(idx int, url string) bool {
	if d == nil || idx < 0 || idx >= len(d.Sections) {
		return false
	}
	d.Sections[idx].VideoURL = url
	return true
}
