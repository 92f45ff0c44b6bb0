package backup

import "io"

// Vault stores ledger snapshots away from the mirror.
type Vault interface {
	// PutMetadata stores a named item for an instance. size is the number of
	// bytes that will be read from r; version is kept for consistency checks.
	PutMetadata(instanceID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named item for an instance and writes it to w.
	GetMetadata(instanceID string, name string, w io.Writer) error

	// GetMetadataVersion returns the stored version, or 0 if nothing was stored.
	GetMetadataVersion(instanceID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and configured.
	ValidateSetup() error
}
