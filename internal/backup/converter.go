package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// ExportFormat is the portable format a proprietary document is exported to.
type ExportFormat struct {
	MimeType  string
	Extension string
}

var exportFormats = map[string]ExportFormat{
	MimeDocument: {
		MimeType:  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Extension: ".docx",
	},
	MimeSpreadsheet: {
		MimeType:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension: ".xlsx",
	},
	MimePresentation: {
		MimeType:  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		Extension: ".pptx",
	},
	MimeDrawing: {
		MimeType:  "image/png",
		Extension: ".png",
	},
}

// IsProprietary reports whether mimeType is a Google Workspace type that has
// no downloadable bytes of its own and must be exported.
func IsProprietary(mimeType string) bool {
	return strings.HasPrefix(mimeType, proprietaryPrefix)
}

// LookupExport returns the export format for a proprietary mime type.
func LookupExport(mimeType string) (ExportFormat, bool) {
	f, ok := exportFormats[mimeType]
	return f, ok
}

// Converter exports proprietary documents to portable formats.
type Converter struct {
	drive      Drive
	downloader *Downloader
	logger     Logger
}

func NewConverter(drive Drive, downloader *Downloader, logger Logger) *Converter {
	return &Converter{drive: drive, downloader: downloader, logger: logger}
}

// Export writes the exported document to stem plus the format's extension and
// returns that path. Unsupported kinds and failed exports are logged and
// yield "" so the caller can skip the file; only cancellation is returned as an error.
func (c *Converter) Export(ctx context.Context, fileID, mimeType, stem string) (string, error) {
	format, ok := LookupExport(mimeType)
	if !ok {
		c.logger.Warn("unsupported Google Workspace file type", "file_id", fileID, "mime_type", mimeType)
		return "", nil
	}

	dest := stem + format.Extension
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		c.logger.Error("creating export directory failed", "file_id", fileID, "path", dest, "error", err)
		return "", nil
	}

	if _, err := c.downloader.Fetch(ctx, c.drive.Export(fileID, format.MimeType), dest); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Error("exporting file failed", "file_id", fileID, "mime_type", mimeType, "error", err)
		return "", nil
	}

	c.logger.Info("converted and saved file", "file_id", fileID, "path", dest)
	return dest, nil
}
