// Package drive adapts the Google Drive v3 API to the backup engine.
package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"gdrive-backup/internal/backup"
)

// GoogleDrive implements backup.Drive on top of the Drive v3 client.
// Every method makes exactly one request.
type GoogleDrive struct {
	svc *drivev3.Service
}

// NewGoogleDrive builds a Drive client that authenticates through client.
func NewGoogleDrive(ctx context.Context, client *http.Client) (*GoogleDrive, error) {
	svc, err := drivev3.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &GoogleDrive{svc: svc}, nil
}

// NewGoogleDriveWithOptions builds a Drive client from raw client options,
// e.g. a custom endpoint.
func NewGoogleDriveWithOptions(ctx context.Context, opts ...option.ClientOption) (*GoogleDrive, error) {
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &GoogleDrive{svc: svc}, nil
}

func (d *GoogleDrive) GetMetadata(ctx context.Context, id string, fields string) (*backup.RemoteItem, error) {
	f, err := d.svc.Files.Get(id).
		Fields(googleapi.Field(fields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return toRemoteItem(f), nil
}

func (d *GoogleDrive) ListChildren(ctx context.Context, req backup.ListRequest) (*backup.ListPage, error) {
	call := d.svc.Files.List().
		Q(req.Filter.String()).
		Fields(googleapi.Field(req.Fields)).
		Context(ctx)
	if req.PageSize > 0 {
		call = call.PageSize(req.PageSize)
	}
	if req.PageToken != "" {
		call = call.PageToken(req.PageToken)
	}

	list, err := call.Do()
	if err != nil {
		return nil, err
	}

	page := &backup.ListPage{
		Items:         make([]*backup.RemoteItem, 0, len(list.Files)),
		NextPageToken: list.NextPageToken,
	}
	for _, f := range list.Files {
		page.Items = append(page.Items, toRemoteItem(f))
	}
	return page, nil
}

func toRemoteItem(f *drivev3.File) *backup.RemoteItem {
	return &backup.RemoteItem{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Parents:      f.Parents,
	}
}

func (d *GoogleDrive) Media(fileID string) backup.MediaRequest {
	return &mediaRequest{
		download: func(ctx context.Context, rangeHeader string) (*http.Response, error) {
			call := d.svc.Files.Get(fileID).Context(ctx)
			call.Header().Set("Range", rangeHeader)
			return call.Download()
		},
	}
}

func (d *GoogleDrive) Export(fileID string, exportMimeType string) backup.MediaRequest {
	return &mediaRequest{
		download: func(ctx context.Context, rangeHeader string) (*http.Response, error) {
			call := d.svc.Files.Export(fileID, exportMimeType).Context(ctx)
			call.Header().Set("Range", rangeHeader)
			return call.Download()
		},
	}
}

// mediaRequest turns a Download call into ranged chunk fetches. A server that
// ignores the Range header answers 200 with the whole body, which is reported
// as one complete chunk starting at 0.
type mediaRequest struct {
	download func(ctx context.Context, rangeHeader string) (*http.Response, error)
}

func (m *mediaRequest) FetchRange(ctx context.Context, offset, length int64) (*backup.MediaChunk, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	resp, err := m.download(ctx, rangeHeader)
	if err != nil {
		var gerr *googleapi.Error
		if offset == 0 && errors.As(err, &gerr) && gerr.Code == http.StatusRequestedRangeNotSatisfiable {
			// Empty content cannot satisfy any range.
			return &backup.MediaChunk{Body: http.NoBody, Start: 0, Total: 0, Complete: true}, nil
		}
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		start, total, err := parseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		chunk := &backup.MediaChunk{Body: resp.Body, Start: start, Total: total}
		if total >= 0 && resp.ContentLength >= 0 && start+resp.ContentLength >= total {
			chunk.Complete = true
		}
		return chunk, nil
	default:
		total := resp.ContentLength
		return &backup.MediaChunk{Body: resp.Body, Start: 0, Total: total, Complete: true}, nil
	}
}

// parseContentRange parses "bytes <start>-<end>/<total>"; total may be "*".
func parseContentRange(v string) (start, total int64, err error) {
	spec, ok := strings.CutPrefix(v, "bytes ")
	if !ok {
		return 0, 0, fmt.Errorf("malformed Content-Range %q", v)
	}
	rng, size, ok := strings.Cut(spec, "/")
	if !ok {
		return 0, 0, fmt.Errorf("malformed Content-Range %q", v)
	}
	first, _, ok := strings.Cut(rng, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed Content-Range %q", v)
	}
	start, err = strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed Content-Range %q: %w", v, err)
	}
	if size == "*" {
		return start, -1, nil
	}
	total, err = strconv.ParseInt(size, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed Content-Range %q: %w", v, err)
	}
	return start, total, nil
}

var _ backup.Drive = (*GoogleDrive)(nil)
