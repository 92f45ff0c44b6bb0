package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gdrive-backup/internal/database/sqlc"
)

const (
	folderFields = "id, name, parents"
	listFields   = "nextPageToken, files(id, name, mimeType, modifiedTime, parents)"
)

// Reconciler walks a remote folder tree depth-first and brings the local
// mirror and the ledger up to date with it.
type Reconciler struct {
	drive      Drive
	ledger     Ledger
	converter  *Converter
	downloader *Downloader
	retry      RetryPolicy
	logger     Logger
	clock      Clock

	// root is the mirror directory; reserved names are not usable directly inside it.
	root     string
	reserved []string

	stats SyncStats
}

// NewReconciler creates a Reconciler. reserved lists names owned by the
// application at the top of the mirror, such as the ledger directory.
func NewReconciler(drive Drive, ledger Ledger, converter *Converter, downloader *Downloader, retry RetryPolicy, logger Logger, clock Clock, reserved ...string) *Reconciler {
	return &Reconciler{
		drive:      drive,
		ledger:     ledger,
		converter:  converter,
		downloader: downloader,
		retry:      retry,
		logger:     logger,
		clock:      clock,
		reserved:   reserved,
	}
}

// Stats returns the counters accumulated so far.
func (r *Reconciler) Stats() SyncStats {
	return r.stats
}

// Sync mirrors the tree rooted at rootID into root. Unlike a subfolder, a root
// whose metadata cannot be fetched fails the run.
func (r *Reconciler) Sync(ctx context.Context, rootID, root string, window Window) error {
	r.root = filepath.Clean(root)
	return r.SyncFolder(ctx, rootID, root, window)
}

// SyncFolder mirrors folderID into localPath: the folder itself, then its files
// modified inside window, then each subfolder recursively.
//
// A folder whose metadata cannot be fetched is skipped along with its subtree.
// Integrity failures in subfolder listings do not stop the remaining siblings;
// they are joined and returned once the folder is done. Ledger failures and
// cancellation abort the whole scan.
func (r *Reconciler) SyncFolder(ctx context.Context, folderID, localPath string, window Window) error {
	if err := ctx.Err(); err != nil {
		return abort(err)
	}

	folder, err := Execute(ctx, r.retry, "get folder", func(ctx context.Context) (*RemoteItem, error) {
		return r.drive.GetMetadata(ctx, folderID, folderFields)
	})
	if err != nil {
		if ctx.Err() != nil {
			return abort(ctx.Err())
		}
		if r.isRoot(localPath) {
			return fmt.Errorf("fetching root folder %s: %w", folderID, err)
		}
		r.logger.Error("fetching folder metadata failed, skipping folder", "folder_id", folderID, "error", err)
		return nil
	}

	if err := r.ensureDir(localPath); err != nil {
		r.logger.Error("creating local folder failed, skipping folder", "folder_id", folderID, "path", localPath, "error", err)
		return nil
	}

	row := &sqlc.Folder{ID: folder.ID, Name: folder.Name}
	if row.ID == "" {
		row.ID = folderID
	}
	if p := folder.ParentID(); p != "" {
		row.ParentID = sql.NullString{String: p, Valid: true}
	}
	prev, err := r.ledger.FindFolder(row.ID)
	if err != nil {
		return abort(fmt.Errorf("reading folder %s: %w", folderID, err))
	}
	if prev != nil && prev.Name != row.Name {
		r.logger.Info("folder renamed remotely", "folder_id", row.ID, "old_name", prev.Name, "new_name", row.Name, "path", localPath)
	}
	if err := r.ledger.UpsertFolder(row); err != nil {
		return abort(fmt.Errorf("recording folder %s: %w", folderID, err))
	}
	r.stats.Folders++

	if err := r.syncFiles(ctx, folderID, localPath, window); err != nil {
		return err
	}
	return r.syncSubfolders(ctx, folderID, localPath, window)
}

func (r *Reconciler) isRoot(path string) bool {
	return r.root != "" && filepath.Clean(path) == r.root
}

// localName returns the on-disk name for a child of dir. A name reserved at the
// mirror root gets a duplicate suffix there.
func (r *Reconciler) localName(dir, name string) string {
	if !r.isRoot(dir) {
		return name
	}
	for _, reserved := range r.reserved {
		if strings.EqualFold(name, reserved) {
			alt := DuplicateName(name, 1)
			r.logger.Warn("remote name is reserved in the backup directory, renaming", "name", name, "using", alt)
			return alt
		}
	}
	return name
}

func (r *Reconciler) ensureDir(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	r.logger.Info("created folder", "path", path)
	return nil
}

// list pages through the children of parentID matching filter.
func (r *Reconciler) list(ctx context.Context, filter Filter, fn func(*RemoteItem) error) error {
	pageToken := ""
	for {
		req := ListRequest{
			Filter:    filter,
			Fields:    listFields,
			PageSize:  PageSize,
			PageToken: pageToken,
		}
		page, err := Execute(ctx, r.retry, "list children", func(ctx context.Context) (*ListPage, error) {
			return r.drive.ListChildren(ctx, req)
		})
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

func (r *Reconciler) syncFiles(ctx context.Context, folderID, localPath string, window Window) error {
	filter := Filter{
		ParentID:     folderID,
		NotMimeType:  MimeFolder,
		ModifiedFrom: window.StartBound(),
		ModifiedTo:   window.EndBound(),
	}
	err := r.list(ctx, filter, func(item *RemoteItem) error {
		return r.syncFile(ctx, item, localPath)
	})
	if err == nil || isAbort(err) {
		return err
	}
	if ctx.Err() != nil {
		return abort(ctx.Err())
	}
	r.logger.Error("listing files failed, skipping files of folder", "folder_id", folderID, "error", err)
	return nil
}

// syncFile downloads one file if it changed since its latest recorded version.
// Only ledger failures and cancellation are returned; everything else is
// logged and counted.
func (r *Reconciler) syncFile(ctx context.Context, item *RemoteItem, localPath string) error {
	if missing := missingFileFields(item); len(missing) > 0 {
		r.logger.Error("skipping file with incomplete metadata",
			"file_id", item.ID, "name", item.Name, "missing", strings.Join(missing, ", "))
		r.stats.Failed++
		return nil
	}
	if item.ParentID() == "" {
		r.logger.Debug("file has no parent", "file_id", item.ID, "name", item.Name)
	}

	latest, err := r.ledger.Latest(item.ID)
	if err != nil {
		return abort(fmt.Errorf("reading latest version of %s: %w", item.ID, err))
	}
	if latest != nil && latest.ModifiedTime == item.ModifiedTime {
		r.logger.Debug("file unchanged", "file_id", item.ID, "name", item.Name, "version", latest.Version)
		r.stats.Unchanged++
		return nil
	}

	version, err := r.ledger.NextVersion(item.ID)
	if err != nil {
		return abort(fmt.Errorf("reading next version of %s: %w", item.ID, err))
	}

	name := SanitizeName(item.Name)
	var format ExportFormat
	proprietary := IsProprietary(item.MimeType)
	if proprietary {
		var ok bool
		if format, ok = LookupExport(item.MimeType); !ok {
			r.logger.Warn("unsupported Google Workspace file type, skipping",
				"file_id", item.ID, "name", item.Name, "mime_type", item.MimeType)
			r.stats.Unsupported++
			return nil
		}
		name += format.Extension
	}

	target, err := r.claimPath(localPath, r.localName(localPath, VersionedName(name, version)), item.ID)
	if err != nil {
		return abort(err)
	}

	if proprietary {
		stem := strings.TrimSuffix(target, format.Extension)
		written, err := r.converter.Export(ctx, item.ID, item.MimeType, stem)
		if err != nil {
			return abort(err)
		}
		if written == "" {
			r.stats.Failed++
			return nil
		}
	} else {
		if _, err := r.downloader.Fetch(ctx, r.drive.Media(item.ID), target); err != nil {
			if ctx.Err() != nil {
				return abort(ctx.Err())
			}
			r.logger.Error("downloading file failed", "file_id", item.ID, "name", item.Name, "error", err)
			r.stats.Failed++
			return nil
		}
	}

	v := &sqlc.FileVersion{
		FileID:       item.ID,
		Version:      version,
		Name:         item.Name,
		MimeType:     item.MimeType,
		ModifiedTime: item.ModifiedTime,
		LocalPath:    target,
		RecordedAt:   r.clock.Now(),
	}
	if p := item.ParentID(); p != "" {
		v.ParentID = sql.NullString{String: p, Valid: true}
	}
	if err := r.ledger.RecordVersion(v); err != nil {
		return abort(fmt.Errorf("recording version %d of %s: %w", version, item.ID, err))
	}

	r.logger.Info("file downloaded", "file_id", item.ID, "path", target, "version", version)
	r.stats.Downloaded++
	return nil
}

// claimPath returns dir/name unless another remote file already owns it, in
// which case name.01.ext, name.02.ext, ... are tried in turn.
func (r *Reconciler) claimPath(dir, name, fileID string) (string, error) {
	candidate := filepath.Join(dir, name)
	for n := 1; ; n++ {
		claimed, err := r.ledger.LocalPathClaimed(candidate, fileID)
		if err != nil {
			return "", fmt.Errorf("checking local path %s: %w", candidate, err)
		}
		if !claimed {
			return candidate, nil
		}
		next := filepath.Join(dir, DuplicateName(name, n))
		r.logger.Warn("local name already used by another file", "file_id", fileID, "path", candidate, "using", next)
		candidate = next
	}
}

func (r *Reconciler) syncSubfolders(ctx context.Context, folderID, localPath string, window Window) error {
	filter := Filter{
		ParentID: folderID,
		MimeType: MimeFolder,
	}

	var errs []error
	err := r.list(ctx, filter, func(child *RemoteItem) error {
		if missing := missingFolderFields(child); len(missing) > 0 {
			merr := &MalformedListingError{ParentID: folderID, Item: *child, Missing: missing}
			r.logger.Error("malformed subfolder entry",
				"parent_id", folderID, "path", localPath, "child_id", child.ID, "child_name", child.Name, "error", merr)
			errs = append(errs, merr)
			return nil
		}

		childPath := filepath.Join(localPath, r.localName(localPath, SanitizeName(child.Name)))
		if err := r.SyncFolder(ctx, child.ID, childPath, window); err != nil {
			if isAbort(err) {
				return err
			}
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		if isAbort(err) {
			return err
		}
		if ctx.Err() != nil {
			return abort(ctx.Err())
		}
		r.logger.Error("listing subfolders failed, skipping subfolders", "folder_id", folderID, "error", err)
	}
	return errors.Join(errs...)
}

func missingFileFields(item *RemoteItem) []string {
	var missing []string
	if item.ID == "" {
		missing = append(missing, "id")
	}
	if item.Name == "" {
		missing = append(missing, "name")
	}
	if item.MimeType == "" {
		missing = append(missing, "mimeType")
	}
	if item.ModifiedTime == "" {
		missing = append(missing, "modifiedTime")
	}
	return missing
}

func missingFolderFields(item *RemoteItem) []string {
	var missing []string
	if item.ID == "" {
		missing = append(missing, "id")
	}
	if item.Name == "" {
		missing = append(missing, "name")
	}
	return missing
}
