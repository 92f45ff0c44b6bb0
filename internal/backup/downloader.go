package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultChunkSize is the byte range requested per chunk.
const DefaultChunkSize int64 = 100 * 1024 * 1024

// Downloader streams remote content to local files chunk by chunk.
// Content is written to a temp file beside the destination and renamed into
// place only once every chunk has arrived, so an existing file is never left
// half-overwritten.
type Downloader struct {
	retry     RetryPolicy
	chunkSize int64
	logger    Logger
}

// NewDownloader creates a Downloader. A non-positive chunkSize uses DefaultChunkSize.
func NewDownloader(retry RetryPolicy, chunkSize int64, logger Logger) *Downloader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Downloader{retry: retry, chunkSize: chunkSize, logger: logger}
}

// Fetch downloads req into dest and returns the number of bytes written.
func (d *Downloader) Fetch(ctx context.Context, req MediaRequest, dest string) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gdrive-backup-*.part")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	policy := d.retry
	retryable := policy.Retryable
	policy.Retryable = func(err error) bool {
		var lerr *localIOError
		if errors.As(err, &lerr) {
			return false
		}
		return retryable != nil && retryable(err)
	}

	var offset int64
	for {
		var chunk chunkResult
		err := policy.Do(ctx, "fetch chunk", func(ctx context.Context) error {
			var err error
			chunk, err = d.fetchChunk(ctx, req, tmp, offset)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("fetching %s at offset %d: %w", filepath.Base(dest), offset, err)
		}
		offset = chunk.end

		d.logger.Debug("download progress", "path", dest, "percent", chunk.percent())
		if chunk.done {
			break
		}
	}

	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return offset, nil
}

type chunkResult struct {
	end   int64
	total int64
	done  bool
}

func (c chunkResult) percent() int {
	if c.done {
		return 100
	}
	if c.total <= 0 {
		return 0
	}
	return int(c.end * 100 / c.total)
}

// fetchChunk requests one range and appends it to f. The file is first cut back
// to where the body starts, which discards bytes from a failed earlier attempt.
func (d *Downloader) fetchChunk(ctx context.Context, req MediaRequest, f *os.File, offset int64) (chunkResult, error) {
	chunk, err := req.FetchRange(ctx, offset, d.chunkSize)
	if err != nil {
		return chunkResult{}, err
	}
	defer chunk.Body.Close()

	if chunk.Start > offset {
		return chunkResult{}, fmt.Errorf("server returned range starting at %d, want %d", chunk.Start, offset)
	}
	if err := f.Truncate(chunk.Start); err != nil {
		return chunkResult{}, &localIOError{err: err}
	}
	if _, err := f.Seek(chunk.Start, io.SeekStart); err != nil {
		return chunkResult{}, &localIOError{err: err}
	}

	n, err := io.Copy(writerOnly{f}, chunk.Body)
	if err != nil {
		var lerr *localIOError
		if errors.As(err, &lerr) {
			return chunkResult{}, lerr
		}
		return chunkResult{}, err
	}

	end := chunk.Start + n
	done := chunk.Complete || n == 0 || (chunk.Total >= 0 && end >= chunk.Total)
	return chunkResult{end: end, total: chunk.Total, done: done}, nil
}

// localIOError marks a failure writing to local disk so it is not mistaken for
// a transient network error.
type localIOError struct {
	err error
}

func (e *localIOError) Error() string { return "local write: " + e.err.Error() }
func (e *localIOError) Unwrap() error { return e.err }

// writerOnly hides ReadFrom so io.Copy reads the body itself, and tags write
// failures as local.
type writerOnly struct {
	f *os.File
}

func (w writerOnly) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, &localIOError{err: err}
	}
	return n, nil
}
