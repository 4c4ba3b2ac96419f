package save

import (
	"sync"

	"github.com/footlight/footlight/internal/core/observability/log"
)

// baseLog aliases log.Log so it can be embedded without the field name
// shadowing the interface's Log method.
type baseLog = log.Log

// recordingLog captures warnings so tests can assert diagnostics that have
// no other observable effect.
type recordingLog struct {
	baseLog
	mu    sync.Mutex
	warns []warnEntry
}

type warnEntry struct {
	msg    string
	fields []log.Field
}

func newRecordingLog() *recordingLog {
	return &recordingLog{baseLog: log.Nop()}
}

func (r *recordingLog) Warn(msg string, fields ...log.Field) {
	r.mu.Lock()
	r.warns = append(r.warns, warnEntry{msg: msg, fields: fields})
	r.mu.Unlock()
}

// warnWith reports whether any captured warning carries the given field
// key and value.
func (r *recordingLog) warnWith(key string, value any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.warns {
		for _, field := range entry.fields {
			if field.Key == key && field.Value == value {
				return true
			}
		}
	}
	return false
}

func (r *recordingLog) warnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warns)
}

// fakeSystem is a Serializable with scripted state and failures. State
// sticks to JSON-native shapes so a save/load round trip reproduces it
// exactly.
type fakeSystem struct {
	key            string
	state          any
	serializeErr   error
	deserializeErr error
	restored       []any
}

func (f *fakeSystem) SystemKey() string { return f.key }

func (f *fakeSystem) Serialize() (any, error) {
	if f.serializeErr != nil {
		return nil, f.serializeErr
	}
	return f.state, nil
}

func (f *fakeSystem) Deserialize(data any) error {
	if f.deserializeErr != nil {
		return f.deserializeErr
	}
	f.restored = append(f.restored, data)
	f.state = data
	return nil
}

// fakeScenes is a SceneBridge with a scripted current scene.
type fakeScenes struct {
	current   string
	switched  []string
	switchErr error
}

func (f *fakeScenes) CurrentID() string { return f.current }

func (f *fakeScenes) Switch(id string) error {
	if f.switchErr != nil {
		return f.switchErr
	}
	f.switched = append(f.switched, id)
	f.current = id
	return nil
}
