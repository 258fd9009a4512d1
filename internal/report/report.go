package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/internal/worklist"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/rohmanhakim/board-scraper/pkg/fileutil"
)

/*
Responsibilities
- Collect per-post outcomes over one run
- Render a run index as Markdown and HTML

The report is an operator artifact, not scraped data: it lists what was
selected, what was stored and what failed, so a run can be audited
without opening the database.
*/

// Outcome is one row of the run index.
type Outcome struct {
	PostID    string
	SiteID    string
	Title     string
	URL       string
	ClaimedBy worklist.Metric
	Blocks    int
	Comments  int
	Stored    bool
	WritePath string
	Err       string
}

type Builder struct {
	mu        sync.Mutex
	runID     string
	startedAt time.Time
	outcomes  []Outcome

	metadataSink metadata.MetadataSink
}

func NewBuilder(metadataSink metadata.MetadataSink, runID string) *Builder {
	return &Builder{
		runID:        runID,
		startedAt:    time.Now(),
		metadataSink: metadataSink,
	}
}

// Record appends one post outcome. Safe for concurrent workers.
func (b *Builder) Record(outcome Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcomes = append(b.outcomes, outcome)
}

// BuildMarkdown renders the run index. Rows are ordered by site then
// post id so the output is stable across runs.
func (b *Builder) BuildMarkdown() []byte {
	b.mu.Lock()
	outcomes := make([]Outcome, len(b.outcomes))
	copy(outcomes, b.outcomes)
	b.mu.Unlock()

	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].SiteID != outcomes[j].SiteID {
			return outcomes[i].SiteID < outcomes[j].SiteID
		}
		return outcomes[i].PostID < outcomes[j].PostID
	})

	stored := 0
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Stored {
			stored++
		}
		if outcome.Err != "" {
			failed++
		}
	}

	var sb strings.Builder
	sb.WriteString("# Scrape Run " + b.runID + "\n\n")
	sb.WriteString(fmt.Sprintf("Started %s | %d posts stored | %d failed\n\n",
		b.startedAt.UTC().Format(time.RFC3339), stored, failed))

	sb.WriteString("| Site | Post | Claimed by | Blocks | Comments | Status |\n")
	sb.WriteString("|------|------|------------|--------|----------|--------|\n")
	for _, outcome := range outcomes {
		title := outcome.Title
		if title == "" {
			title = outcome.PostID
		}
		status := "stored"
		if outcome.Err != "" {
			status = "failed: " + outcome.Err
		} else if !outcome.Stored {
			status = "skipped"
		}
		sb.WriteString(fmt.Sprintf("| %s | [%s](%s) | %s | %d | %d | %s |\n",
			outcome.SiteID, title, outcome.URL, outcome.ClaimedBy,
			outcome.Blocks, outcome.Comments, status))
	}

	return []byte(sb.String())
}

// RenderHTML converts the Markdown run index into a standalone HTML page.
func (b *Builder) RenderHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
		Title: "Scrape Run " + b.runID,
	})
	return markdown.ToHTML(md, p, renderer)
}

// Write renders both forms into outputDir as run-<id>.md and
// run-<id>.html.
func (b *Builder) Write(outputDir string) (string, failure.ClassifiedError) {
	if err := fileutil.EnsureDir(outputDir); err != nil {
		return "", err
	}

	md := b.BuildMarkdown()
	base := "run-" + fileutil.SanitizeFilename(b.runID)

	mdPath := filepath.Join(outputDir, base+".md")
	if err := os.WriteFile(mdPath, md, 0644); err != nil {
		return "", &reportWriteError{message: err.Error(), path: mdPath}
	}

	htmlPath := filepath.Join(outputDir, base+".html")
	if err := os.WriteFile(htmlPath, b.RenderHTML(md), 0644); err != nil {
		return "", &reportWriteError{message: err.Error(), path: htmlPath}
	}

	b.metadataSink.RecordArtifact(
		metadata.ArtifactReport,
		htmlPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, htmlPath),
		},
	)
	return htmlPath, nil
}
