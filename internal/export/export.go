package export

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/rohmanhakim/board-scraper/internal/comments"
	"github.com/rohmanhakim/board-scraper/internal/content"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/post"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/rohmanhakim/board-scraper/pkg/urlutil"
)

/*
Design Principles
- Semantic fidelity over visual fidelity
- Block order preserved exactly
- No inferred structure

Document Layout
- Title heading, then a metadata line
- Content blocks in extraction order
- Comments as depth-indented blockquotes

Rich text blocks go through the HTML-to-Markdown converter; plain blocks
are emitted directly.
*/

type Exporter struct {
	metadataSink metadata.MetadataSink
	converter    *converter.Converter
}

func NewExporter(metadataSink metadata.MetadataSink) Exporter {
	return Exporter{
		metadataSink: metadataSink,
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Export renders the post aggregate as one Markdown document.
func (e *Exporter) Export(p post.Post) (MarkdownDoc, failure.ClassifiedError) {
	doc, err := e.render(p)
	if err != nil {
		var exportError *ExportError
		errors.As(err, &exportError)
		e.metadataSink.RecordError(
			time.Now(),
			"export",
			"Exporter.Export",
			mapExportErrorToMetadataCause(*exportError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSite, p.SiteID),
				metadata.NewAttr(metadata.AttrPostID, p.ID),
			},
		)
		return MarkdownDoc{}, exportError
	}
	return doc, nil
}

func (e *Exporter) render(p post.Post) (MarkdownDoc, *ExportError) {
	var sb strings.Builder

	title := p.Meta.Title
	if title == "" {
		title = p.ID
	}
	sb.WriteString("# " + title + "\n\n")

	meta := fmt.Sprintf("*%s", p.SiteID)
	if p.Meta.Author != "" {
		meta += " | " + p.Meta.Author
	}
	if p.Meta.PostedAt != "" {
		meta += " | " + p.Meta.PostedAt
	}
	meta += fmt.Sprintf(" | %d likes, %d comments, %d views*",
		p.Meta.Likes, p.Meta.CommentCount, p.Meta.Views)
	sb.WriteString(meta + "\n\n")
	sb.WriteString("[source](" + p.URL + ")\n\n")

	for _, block := range p.Content {
		rendered, err := e.renderBlock(block)
		if err != nil {
			return MarkdownDoc{}, err
		}
		if rendered != "" {
			sb.WriteString(rendered + "\n\n")
		}
	}

	if len(p.Comments) > 0 {
		sb.WriteString("## Comments\n\n")
		for _, comment := range p.Comments {
			sb.WriteString(renderComment(comment))
		}
	}

	return NewMarkdownDoc(
		title,
		p.URL,
		canonicalURL(p.URL),
		[]byte(sb.String()),
	), nil
}

func (e *Exporter) renderBlock(block content.Block) (string, *ExportError) {
	switch block.Type {
	case content.BlockText:
		if block.Text == nil {
			return "", nil
		}
		if block.Text.RawMarkup != "" {
			markdown, err := e.converter.ConvertString(block.Text.RawMarkup)
			if err != nil {
				return "", &ExportError{
					Message:   err.Error(),
					Retryable: false,
					Cause:     ErrCauseConversionFailure,
				}
			}
			return strings.TrimSpace(markdown), nil
		}
		return block.Text.Text, nil

	case content.BlockImage:
		if block.Image == nil {
			return "", nil
		}
		image := fmt.Sprintf("![%s](%s)", block.Image.Alt, block.Image.SourceURL)
		if block.Image.LinkHref != "" {
			return fmt.Sprintf("[%s](%s)", image, block.Image.LinkHref), nil
		}
		return image, nil

	case content.BlockVideo:
		if block.Video == nil {
			return "", nil
		}
		return fmt.Sprintf("[video](%s)", block.Video.SourceURL), nil
	}
	return "", nil
}

// renderComment writes one comment as a blockquote, one quote level per
// nesting depth.
func renderComment(comment comments.CommentNode) string {
	prefix := strings.Repeat(">", comment.Depth+1) + " "

	var sb strings.Builder
	header := comment.Author
	if header == "" {
		header = "anonymous"
	}
	if comment.CreatedAt != "" {
		header += " | " + comment.CreatedAt
	}
	sb.WriteString(prefix + "**" + header + "**\n")

	for _, line := range strings.Split(comment.Body, "\n") {
		sb.WriteString(prefix + line + "\n")
	}
	for _, media := range comment.Media {
		if media.Type == content.BlockImage && media.Image != nil {
			sb.WriteString(prefix + fmt.Sprintf("![%s](%s)", media.Image.Alt, media.Image.SourceURL) + "\n")
		}
		if media.Type == content.BlockVideo && media.Video != nil {
			sb.WriteString(prefix + fmt.Sprintf("[video](%s)", media.Video.SourceURL) + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func canonicalURL(rawUrl string) string {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return rawUrl
	}
	canonical := urlutil.Canonicalize(*parsed)
	return canonical.String()
}
