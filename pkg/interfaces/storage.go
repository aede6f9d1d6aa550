package interfaces

import (
	"github.com/goliatone/go-press/pkg/storage"
)

// StorageProvider is the canonical storage contract consumed by repositories
// and the static generator. It aliases pkg/storage.Provider so hosts only
// implement one interface.
type StorageProvider = storage.Provider

// Rows aliases the storage row iterator.
type Rows = storage.Rows

// Result aliases the storage execution result.
type Result = storage.Result

// Transaction aliases the storage transaction contract.
type Transaction = storage.Transaction
