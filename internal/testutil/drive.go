package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"gdrive-backup/internal/backup"
)

// ErrTransient is a retryable failure injected by FakeDrive.
var ErrTransient = errors.New("transient remote failure")

// IsTransient is the retry predicate matching ErrTransient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// NoWaitRetry returns the default retry policy for IsTransient with the waits
// between attempts skipped.
func NoWaitRetry() backup.RetryPolicy {
	p := backup.DefaultRetryPolicy(IsTransient, backup.NewNopLogger())
	p.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

// Fake drive operations that can fail or be counted.
const (
	OpMetadata = "metadata"
	OpList     = "list"
	OpMedia    = "media"
	OpExport   = "export"
)

type fakeNode struct {
	item    backup.RemoteItem
	content []byte
	trashed bool
}

type failure struct {
	err       error
	remaining int // negative means forever
}

// FakeDrive is an in-memory backup.Drive. Listings evaluate the Filter the way
// the Drive query language does. Safe for concurrent use.
type FakeDrive struct {
	mu       sync.Mutex
	nodes    []*fakeNode
	byID     map[string]*fakeNode
	failures map[string]*failure
	calls    map[string]int
	exports  map[string]string

	// MaxPageSize caps the page size to force pagination. Zero means no cap.
	MaxPageSize int
	// IgnoreRange makes content fetches answer with the whole body from offset 0.
	IgnoreRange bool
}

// NewFakeDrive returns a drive holding only the root folder.
func NewFakeDrive() *FakeDrive {
	d := &FakeDrive{
		byID:     map[string]*fakeNode{},
		failures: map[string]*failure{},
		calls:    map[string]int{},
		exports:  map[string]string{},
	}
	d.add(&fakeNode{item: backup.RemoteItem{ID: backup.RootFolderID, Name: "My Drive", MimeType: backup.MimeFolder}})
	return d
}

func (d *FakeDrive) add(n *fakeNode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, n)
	if n.item.ID != "" {
		d.byID[n.item.ID] = n
	}
}

func parents(parent string) []string {
	if parent == "" {
		return nil
	}
	return []string{parent}
}

// AddFolder adds a folder under parent.
func (d *FakeDrive) AddFolder(id, name, parent string) {
	d.add(&fakeNode{item: backup.RemoteItem{
		ID:       id,
		Name:     name,
		MimeType: backup.MimeFolder,
		Parents:  parents(parent),
	}})
}

// AddFile adds a file under parent. Proprietary documents export to content.
func (d *FakeDrive) AddFile(id, name, mimeType, parent, modifiedTime string, content []byte) {
	d.add(&fakeNode{
		item: backup.RemoteItem{
			ID:           id,
			Name:         name,
			MimeType:     mimeType,
			ModifiedTime: modifiedTime,
			Parents:      parents(parent),
		},
		content: content,
	})
}

// AddItem lists item under its parents verbatim, even with fields missing.
func (d *FakeDrive) AddItem(item backup.RemoteItem) {
	d.add(&fakeNode{item: item})
}

// Modify replaces a file's modification time and content.
func (d *FakeDrive) Modify(id, modifiedTime string, content []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.byID[id]
	n.item.ModifiedTime = modifiedTime
	n.content = content
}

// Rename changes a node's name.
func (d *FakeDrive) Rename(id, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[id].item.Name = name
}

// Trash moves a node to the trash.
func (d *FakeDrive) Trash(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[id].trashed = true
}

// Fail makes the next times calls of op on id fail with err. A negative
// times fails forever. For OpList, id is the parent folder.
func (d *FakeDrive) Fail(op, id string, err error, times int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op+"/"+id] = &failure{err: err, remaining: times}
}

// Calls returns how many times op was invoked on id.
func (d *FakeDrive) Calls(op, id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op+"/"+id]
}

// ExportedAs returns the export mime type last requested for id.
func (d *FakeDrive) ExportedAs(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exports[id]
}

// call counts an invocation and returns the injected failure, if any.
// d.mu must be held.
func (d *FakeDrive) call(op, id string) error {
	key := op + "/" + id
	d.calls[key]++
	f, ok := d.failures[key]
	if !ok || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

func (d *FakeDrive) GetMetadata(ctx context.Context, id string, fields string) (*backup.RemoteItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(OpMetadata, id); err != nil {
		return nil, err
	}
	n, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}
	item := n.item
	return &item, nil
}

func (d *FakeDrive) ListChildren(ctx context.Context, req backup.ListRequest) (*backup.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(OpList, req.Filter.ParentID); err != nil {
		return nil, err
	}

	var matched []*backup.RemoteItem
	for _, n := range d.nodes {
		ok, err := matches(n, req.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			item := n.item
			matched = append(matched, &item)
		}
	}

	offset := 0
	if req.PageToken != "" {
		var err error
		if offset, err = strconv.Atoi(req.PageToken); err != nil {
			return nil, fmt.Errorf("invalid page token %q", req.PageToken)
		}
	}
	size := int(req.PageSize)
	if size <= 0 {
		size = 100
	}
	if d.MaxPageSize > 0 && size > d.MaxPageSize {
		size = d.MaxPageSize
	}

	end := min(offset+size, len(matched))
	page := &backup.ListPage{Items: matched[min(offset, end):end]}
	if end < len(matched) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func matches(n *fakeNode, f backup.Filter) (bool, error) {
	if n.trashed != f.Trashed {
		return false, nil
	}
	if f.ParentID != "" && !slices.Contains(n.item.Parents, f.ParentID) {
		return false, nil
	}
	if f.MimeType != "" && n.item.MimeType != f.MimeType {
		return false, nil
	}
	if f.NotMimeType != "" && n.item.MimeType == f.NotMimeType {
		return false, nil
	}
	if f.ModifiedFrom == "" && f.ModifiedTo == "" {
		return true, nil
	}

	if n.item.ModifiedTime == "" {
		return false, nil
	}
	mt, err := time.Parse(time.RFC3339Nano, n.item.ModifiedTime)
	if err != nil {
		return false, fmt.Errorf("invalid modifiedTime %q: %w", n.item.ModifiedTime, err)
	}
	if f.ModifiedFrom != "" {
		from, err := time.Parse(time.RFC3339Nano, f.ModifiedFrom)
		if err != nil {
			return false, fmt.Errorf("invalid query bound %q: %w", f.ModifiedFrom, err)
		}
		if mt.Before(from) {
			return false, nil
		}
	}
	if f.ModifiedTo != "" {
		to, err := time.Parse(time.RFC3339Nano, f.ModifiedTo)
		if err != nil {
			return false, fmt.Errorf("invalid query bound %q: %w", f.ModifiedTo, err)
		}
		if mt.After(to) {
			return false, nil
		}
	}
	return true, nil
}

func (d *FakeDrive) Media(fileID string) backup.MediaRequest {
	return &fakeMedia{drive: d, id: fileID, op: OpMedia}
}

func (d *FakeDrive) Export(fileID string, exportMimeType string) backup.MediaRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exports[fileID] = exportMimeType
	return &fakeMedia{drive: d, id: fileID, op: OpExport}
}

type fakeMedia struct {
	drive *FakeDrive
	id    string
	op    string
}

func (m *fakeMedia) FetchRange(ctx context.Context, offset, length int64) (*backup.MediaChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := m.drive
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.call(m.op, m.id); err != nil {
		return nil, err
	}
	n, ok := d.byID[m.id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", m.id)
	}

	total := int64(len(n.content))
	if d.IgnoreRange {
		return &backup.MediaChunk{
			Body:     io.NopCloser(bytes.NewReader(n.content)),
			Start:    0,
			Total:    total,
			Complete: true,
		}, nil
	}

	start := min(offset, total)
	end := min(offset+length, total)
	return &backup.MediaChunk{
		Body:     io.NopCloser(bytes.NewReader(n.content[start:end])),
		Start:    start,
		Total:    total,
		Complete: end >= total,
	}, nil
}

var _ backup.Drive = (*FakeDrive)(nil)
