package memory

import (
	"testing"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/storagetest"
)

func TestMemoryStorage(t *testing.T) {
	storagetest.Run(t, "Memory", func(t *testing.T) storage.Storage {
		return New()
	})
}
