package app

// Sync operation statuses recorded in the ledger.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SyncOperation tracks a CLI operation that may mutate the ledger.
// Operations are created in memory with ID=0. Only ledger-mutating commands
// persist them (giving them an auto-increment ID from the ledger).
type SyncOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewSyncOperation creates a new in-memory sync operation.
func NewSyncOperation(operation, parameters string) *SyncOperation {
	return &SyncOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the ledger.
func (op *SyncOperation) Persisted() bool {
	return op.ID != 0
}
