package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gdrive-backup/internal/backup"
)

// FileSystemVault stores ledger snapshots as files:
//
//	<root>/
//	  metadata/
//	    <instanceID>/
//	      <name>           (snapshot)
//	      <name>.version   (version marker)
type FileSystemVault struct {
	name        string
	root        string
	metadataDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	metadataDir := filepath.Join(root, "metadata")

	if err := os.MkdirAll(metadataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		metadataDir: metadataDir,
	}, nil
}

func (v *FileSystemVault) itemPath(instanceID, name string) string {
	return filepath.Join(v.metadataDir, instanceID, name)
}

// PutMetadata stores a named item for an instance along with a version marker.
func (v *FileSystemVault) PutMetadata(instanceID string, name string, r io.Reader, size int64, version int64) error {
	destPath := v.itemPath(instanceID, name)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create instance directory: %w", err)
	}
	if err := v.writeFile(destPath, r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return v.writeFile(destPath+".version", strings.NewReader(versionData), int64(len(versionData)))
}

// GetMetadataVersion returns 0 if no version marker exists.
func (v *FileSystemVault) GetMetadataVersion(instanceID string, name string) (int64, error) {
	data, err := os.ReadFile(v.itemPath(instanceID, name) + ".version")
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetMetadata retrieves a named item for an instance and writes it to w.
func (v *FileSystemVault) GetMetadata(instanceID string, name string, w io.Writer) error {
	return v.readFile(v.itemPath(instanceID, name), w,
		fmt.Sprintf("metadata %q not found for instance: %s", name, instanceID))
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.metadataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes r to destPath via a temp file in the same directory and a rename.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func (v *FileSystemVault) readFile(srcPath string, w io.Writer, notFoundMsg string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s", notFoundMsg)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return nil
}

var _ backup.Vault = (*FileSystemVault)(nil)
