package export

// Representation

type MarkdownDoc struct {
	title        string
	sourceURL    string
	canonicalURL string
	content      []byte
}

func NewMarkdownDoc(
	title string,
	sourceURL string,
	canonicalURL string,
	content []byte,
) MarkdownDoc {
	return MarkdownDoc{
		title:        title,
		sourceURL:    sourceURL,
		canonicalURL: canonicalURL,
		content:      content,
	}
}

func (m *MarkdownDoc) Title() string {
	return m.title
}

func (m *MarkdownDoc) SourceURL() string {
	return m.sourceURL
}

// CanonicalURL is the deterministic spelling of SourceURL used for
// filename hashing.
func (m *MarkdownDoc) CanonicalURL() string {
	return m.canonicalURL
}

func (m *MarkdownDoc) Content() []byte {
	return m.content
}
