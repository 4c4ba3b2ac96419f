package storage

// SlotInfo describes one stored save slot.
type SlotInfo struct {
	Slot      string `json:"slot"`
	Timestamp int64  `json:"timestamp"`
	Size      int64  `json:"size"`
}

// Adapter is the persistence boundary for save payloads. The engine treats
// slot data as opaque bytes; whether they land in memory, on disk, in
// browser local storage or behind an API is the adapter's business.
//
// Save reports false when the adapter refused the write (quota, readonly
// mount) without a harder error to tell. Load returns nil, nil for a
// missing slot; missing is a normal answer, not an error.
type Adapter interface {
	Save(slot string, data []byte) (bool, error)
	Load(slot string) ([]byte, error)
	Delete(slot string) (bool, error)
	List() ([]SlotInfo, error)
}
