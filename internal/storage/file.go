package storage

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/board-scraper/internal/export"
	"github.com/rohmanhakim/board-scraper/internal/metadata"
	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/rohmanhakim/board-scraper/pkg/fileutil"
	"github.com/rohmanhakim/board-scraper/pkg/hashutil"
)

/*
Responsibilities
- Persist Markdown files
- Ensure deterministic filenames

Output Characteristics
- Stable directory layout
- Idempotent writes
- Overwrite-safe reruns

The filename is the first 12 hex characters of the canonical-URL hash,
so the same post always lands in the same file across runs.
*/

const urlHashFilenameLen = 12

type FileSink struct {
	metadataSink metadata.MetadataSink
}

func NewFileSink(
	metadataSink metadata.MetadataSink,
) FileSink {
	return FileSink{
		metadataSink: metadataSink,
	}
}

func (s *FileSink) Write(
	outputDir string,
	doc export.MarkdownDoc,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, doc, hashAlgo)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"FileSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, doc.SourceURL()),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactMarkdown,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrURL, doc.SourceURL()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	doc export.MarkdownDoc,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	urlHashFull, err := hashutil.HashBytes([]byte(doc.CanonicalURL()), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}
	urlHash := urlHashFull[:urlHashFilenameLen]

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      outputDir,
		}
	}

	path := filepath.Join(outputDir, urlHash+".md")
	if err := os.WriteFile(path, doc.Content(), 0644); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      path,
		}
	}

	contentHash, err := hashutil.HashBytes(doc.Content(), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
			Path:      path,
		}
	}

	return NewWriteResult(urlHash, path, contentHash), nil
}
