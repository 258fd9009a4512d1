package content

// Typed content blocks

// BlockType discriminates the payload carried by a Block.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockVideo BlockType = "video"
)

// Block is one typed unit of a post body, tagged with its position in
// reading order. Exactly one payload pointer is non-nil, matching Type.
//
// Invariants (enforced by the walker, checked again at post assembly):
//   - Order values within one extraction form a contiguous 0-based run
//   - No two Image blocks share a canonical SourceURL
//
// Blocks are created in document order and never mutated afterward.
type Block struct {
	Type  BlockType `json:"type"`
	Order int       `json:"order"`

	Text  *TextPayload  `json:"text,omitempty"`
	Image *ImagePayload `json:"image,omitempty"`
	Video *VideoPayload `json:"video,omitempty"`
}

type TextPayload struct {
	Tag       string `json:"tag"`
	Text      string `json:"text"`
	StyleAttr string `json:"styleAttr,omitempty"`
	ClassAttr string `json:"classAttr,omitempty"`
	RawMarkup string `json:"rawMarkup,omitempty"`
}

type ImagePayload struct {
	// SourceURL is canonical and absolute; it doubles as the block's
	// de-duplication key.
	SourceURL string `json:"sourceUrl"`
	Alt       string `json:"alt,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	// LinkHref carries the href of an expandable-image wrapper anchor.
	LinkHref string `json:"linkHref,omitempty"`
}

type VideoPayload struct {
	SourceURL string `json:"sourceUrl"`
	Poster    string `json:"poster,omitempty"`
	Autoplay  bool   `json:"autoplay"`
	Muted     bool   `json:"muted"`
	Loop      bool   `json:"loop"`
	Controls  bool   `json:"controls"`
}

func newTextBlock(order int, payload TextPayload) Block {
	return Block{Type: BlockText, Order: order, Text: &payload}
}

func newImageBlock(order int, payload ImagePayload) Block {
	return Block{Type: BlockImage, Order: order, Image: &payload}
}

func newVideoBlock(order int, payload VideoPayload) Block {
	return Block{Type: BlockVideo, Order: order, Video: &payload}
}
