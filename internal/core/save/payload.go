package save

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// DefaultVersion is assumed for payloads that carry no version stamp.
const DefaultVersion = "1.0.0"

// Payload is the envelope a whole game snapshot travels in. It is built at
// save time, persisted through a storage adapter, and discarded after load;
// the save manager keeps no copy.
type Payload struct {
	Version        string         `json:"version"`
	Timestamp      int64          `json:"timestamp"`
	CurrentSceneID string         `json:"currentSceneId"`
	Systems        map[string]any `json:"systems"`
	Metadata       map[string]any `json:"metadata"`
}

// systemsChecksum hashes the canonical JSON form of the systems map. The
// canonical form is what a marshal/unmarshal round trip produces, so a
// checksum taken at save time matches one recomputed from decoded data.
func systemsChecksum(systems map[string]any) (string, error) {
	raw, err := json.Marshal(systems)
	if err != nil {
		return "", err
	}
	var decoded any
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(canonical), 16), nil
}
