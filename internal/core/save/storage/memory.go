package storage

import (
	"sync"
	"time"

	"github.com/footlight/footlight/pkg/sequence"
)

type memorySlot struct {
	data    []byte
	savedAt int64
}

// MemoryAdapter keeps slots in process memory. It backs tests and
// ephemeral sessions where persistence across runs does not matter.
type MemoryAdapter struct {
	slots sync.Map // slot name -> memorySlot
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

func (a *MemoryAdapter) Save(slot string, data []byte) (bool, error) {
	stored := make([]byte, len(data))
	copy(stored, data)
	a.slots.Store(slot, memorySlot{data: stored, savedAt: time.Now().UnixMilli()})
	return true, nil
}

func (a *MemoryAdapter) Load(slot string) ([]byte, error) {
	v, ok := a.slots.Load(slot)
	if !ok {
		return nil, nil
	}
	stored := v.(memorySlot)
	out := make([]byte, len(stored.data))
	copy(out, stored.data)
	return out, nil
}

func (a *MemoryAdapter) Delete(slot string) (bool, error) {
	_, existed := a.slots.LoadAndDelete(slot)
	return existed, nil
}

func (a *MemoryAdapter) List() ([]SlotInfo, error) {
	var infos []SlotInfo
	a.slots.Range(func(key, value any) bool {
		stored := value.(memorySlot)
		infos = append(infos, SlotInfo{
			Slot:      key.(string),
			Timestamp: stored.savedAt,
			Size:      int64(len(stored.data)),
		})
		return true
	})
	return sequence.From(infos).
		Sort(func(a, b SlotInfo) bool { return a.Slot < b.Slot }).
		Collect(), nil
}
