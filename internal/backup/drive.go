package backup

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Google Drive mime types the engine cares about.
const (
	MimeFolder       = "application/vnd.google-apps.folder"
	MimeDocument     = "application/vnd.google-apps.document"
	MimeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	MimePresentation = "application/vnd.google-apps.presentation"
	MimeDrawing      = "application/vnd.google-apps.drawing"

	proprietaryPrefix = "application/vnd.google-apps."
)

// RootFolderID is the alias Drive resolves to the user's top-level folder.
const RootFolderID = "root"

// PageSize is the number of children requested per listing page.
const PageSize = 1000

// RemoteItem is a file or folder as reported by a Drive listing or metadata call.
// ModifiedTime is kept as the exact RFC 3339 string the remote returned.
type RemoteItem struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime string
	Parents      []string
}

// ParentID returns the first parent, or "" when the item has none.
func (i *RemoteItem) ParentID() string {
	if len(i.Parents) == 0 {
		return ""
	}
	return i.Parents[0]
}

// Filter selects children of a folder. Zero-valued fields impose no constraint,
// except Trashed which is always part of the query.
type Filter struct {
	ParentID     string
	MimeType     string // equality
	NotMimeType  string // inequality
	ModifiedFrom string // inclusive lower bound, RFC 3339
	ModifiedTo   string // inclusive upper bound, RFC 3339
	Trashed      bool
}

// String renders the filter in Drive query syntax.
func (f Filter) String() string {
	var clauses []string
	if f.ParentID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", quote(f.ParentID)))
	}
	if f.MimeType != "" {
		clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", quote(f.MimeType)))
	}
	if f.NotMimeType != "" {
		clauses = append(clauses, fmt.Sprintf("mimeType != '%s'", quote(f.NotMimeType)))
	}
	if f.ModifiedFrom != "" {
		clauses = append(clauses, fmt.Sprintf("modifiedTime >= '%s'", f.ModifiedFrom))
	}
	if f.ModifiedTo != "" {
		clauses = append(clauses, fmt.Sprintf("modifiedTime <= '%s'", f.ModifiedTo))
	}
	clauses = append(clauses, fmt.Sprintf("trashed = %t", f.Trashed))
	return strings.Join(clauses, " and ")
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// ListRequest is one page request for ListChildren.
type ListRequest struct {
	Filter    Filter
	Fields    string
	PageSize  int64
	PageToken string
}

// ListPage is one page of children. NextPageToken is empty on the last page.
type ListPage struct {
	Items         []*RemoteItem
	NextPageToken string
}

// Drive is the remote file store the engine mirrors. Implementations make a
// single attempt per call; retries are applied by the caller.
type Drive interface {
	// GetMetadata fetches the named fields of one node.
	GetMetadata(ctx context.Context, id string, fields string) (*RemoteItem, error)

	// ListChildren returns one page of children matching req.Filter.
	ListChildren(ctx context.Context, req ListRequest) (*ListPage, error)

	// Media returns a ranged reader over a binary file's content.
	Media(fileID string) MediaRequest

	// Export returns a ranged reader over a proprietary document exported to exportMimeType.
	Export(fileID string, exportMimeType string) MediaRequest
}

// MediaChunk is one response of a ranged content fetch.
type MediaChunk struct {
	Body io.ReadCloser
	// Start is the offset Body begins at. It is 0 when the server ignored the range.
	Start int64
	// Total is the full content size, or -1 when unknown.
	Total int64
	// Complete is set when Body runs to the end of the content.
	Complete bool
}

// MediaRequest fetches content in byte ranges.
type MediaRequest interface {
	FetchRange(ctx context.Context, offset, length int64) (*MediaChunk, error)
}
