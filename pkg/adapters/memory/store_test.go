package memory_test

import (
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunCheckpointStoreContract(t, store)
}

func TestMemoryCaseStore_Contract(t *testing.T) {
	ports.RunCaseStoreContract(t, memory.NewCaseStore())
}

func TestMemoryAccountStore_Contract(t *testing.T) {
	ports.RunAccountStoreContract(t, memory.NewAccountStore())
}
