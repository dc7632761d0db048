package memory

import (
	"testing"

	"budget/internal/storage"
	"budget/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
