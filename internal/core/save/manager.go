package save

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/save/storage"
	"github.com/footlight/footlight/pkg/sequence"
)

// systemKeys walks a decoded systems map in a stable order.
func systemKeys(systems map[string]any) []string {
	keys := make([]string, 0, len(systems))
	for key := range systems {
		keys = append(keys, key)
	}
	return sequence.From(keys).Sort(func(a, b string) bool { return a < b }).Collect()
}

// Events published by the save manager. Hosts subscribe to the failure
// events for their own UI feedback; a failed save must never take the
// game down with it.
const (
	EventCompleted  = "save.completed"
	EventFailed     = "save.failed"
	EventLoaded     = "save.loaded"
	EventLoadFailed = "save.loadFailed"
)

// Metadata keys stamped into every payload.
const (
	metaChecksum = "checksum"
	metaStamp    = "stamp"
)

// Manager binds the registry, the migrator and a storage adapter into
// whole-game save and load operations.
//
// Operations on the same slot must not overlap; the manager does not lock
// around its adapter. Failures are returned to the caller and published on
// the bus, so both direct callers and passive listeners see them.
type Manager struct {
	log      log.Log
	bus      bus.EventBus
	registry *Registry
	migrator *Migrator
	adapter  storage.Adapter
	maxSlots int
}

func NewManager(registry *Registry, migrator *Migrator, adapter storage.Adapter, eventBus bus.EventBus, logger log.Log) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	if registry == nil {
		registry = NewRegistry(DefaultVersion, nil, logger)
	}
	if migrator == nil {
		migrator = NewMigrator(logger)
	}
	if adapter == nil {
		adapter = storage.NewMemoryAdapter()
	}
	return &Manager{
		log:      logger,
		bus:      eventBus,
		registry: registry,
		migrator: migrator,
		adapter:  adapter,
	}
}

// Registry exposes the serialization registry for system registration.
func (m *Manager) Registry() *Registry { return m.registry }

// Migrator exposes the migration chain for step registration.
func (m *Manager) Migrator() *Migrator { return m.migrator }

// SetMaxSlots caps how many distinct slots Save will create. Zero or
// negative means unlimited. Overwriting an existing slot never counts
// against the cap.
func (m *Manager) SetMaxSlots(n int) { m.maxSlots = n }

// Save freezes every registered system into a payload and hands the JSON
// to the storage adapter. The failure path publishes EventFailed and
// returns the error; success publishes EventCompleted.
func (m *Manager) Save(slot string) error {
	if err := m.checkQuota(slot); err != nil {
		return m.failSave(slot, err)
	}

	payload, err := m.snapshot()
	if err != nil {
		return m.failSave(slot, err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return m.failSave(slot, fmt.Errorf("encoding payload: %w", err))
	}

	ok, err := m.adapter.Save(slot, data)
	if err != nil {
		return m.failSave(slot, fmt.Errorf("storage adapter: %w", err))
	}
	if !ok {
		return m.failSave(slot, fault.New(fault.CodeAdapterRejected,
			fmt.Sprintf("storage adapter refused slot %q", slot), fault.ErrAdapterRejected))
	}

	m.log.Info("game saved",
		log.String("slot", slot), log.String("version", payload.Version), log.Int("bytes", len(data)))
	_ = m.bus.Publish(bus.NewEvent(EventCompleted, "save", map[string]any{
		"slot": slot, "timestamp": payload.Timestamp,
	}, nil))
	return nil
}

// checkQuota refuses a save that would create a slot past the cap.
func (m *Manager) checkQuota(slot string) error {
	if m.maxSlots <= 0 {
		return nil
	}
	slots, err := m.adapter.List()
	if err != nil {
		return fmt.Errorf("listing slots: %w", err)
	}
	if len(slots) < m.maxSlots {
		return nil
	}
	for _, info := range slots {
		if info.Slot == slot {
			return nil
		}
	}
	return fault.New(fault.CodeAdapterRejected,
		fmt.Sprintf("slot quota reached (%d), refusing new slot %q", m.maxSlots, slot),
		fault.ErrAdapterRejected)
}

func (m *Manager) snapshot() (*Payload, error) {
	systems := make(map[string]any)
	for _, key := range m.registry.Keys() {
		system, _ := m.registry.Lookup(key)
		blob, err := system.Serialize()
		if err != nil {
			return nil, fmt.Errorf("serializing system %q: %w", key, err)
		}
		systems[key] = blob
	}

	payload := &Payload{
		Version:        m.registry.Version(),
		Timestamp:      time.Now().UnixMilli(),
		CurrentSceneID: m.registry.CurrentSceneID(),
		Systems:        systems,
		Metadata:       map[string]any{metaStamp: uuid.NewString()},
	}
	checksum, err := systemsChecksum(systems)
	if err != nil {
		return nil, fmt.Errorf("checksumming systems: %w", err)
	}
	payload.Metadata[metaChecksum] = checksum
	return payload, nil
}

func (m *Manager) failSave(slot string, err error) error {
	m.log.Error("save failed", log.String("slot", slot), log.Error(err))
	_ = m.bus.Publish(bus.NewEvent(EventFailed, "save", map[string]any{
		"slot": slot, "error": err.Error(),
	}, nil))
	return err
}

// Load reads a slot, migrates the payload to the current schema version,
// restores every registered system named in it, and switches back to the
// saved scene. A missing slot is a recoverable failure: EventLoadFailed
// plus an error, never a panic.
//
// Systems restored before a later failure keep their restored state; a
// load failure means the game should go back to a menu, not limp on.
func (m *Manager) Load(slot string) error {
	data, err := m.adapter.Load(slot)
	if err != nil {
		return m.failLoad(slot, fmt.Errorf("storage adapter: %w", err))
	}
	if data == nil {
		return m.failLoad(slot, fault.New(fault.CodeSlotNotFound,
			fmt.Sprintf("slot %q has no save", slot), fault.ErrSlotNotFound))
	}

	var payload Payload
	if err = json.Unmarshal(data, &payload); err != nil {
		return m.failLoad(slot, fault.New(fault.CodePayloadCorrupt,
			fmt.Sprintf("slot %q does not parse", slot), err))
	}
	m.verifyChecksum(slot, &payload)

	migrated := m.migrator.Migrate(&payload, m.registry.Version())

	for _, key := range systemKeys(migrated.Systems) {
		system, ok := m.registry.Lookup(key)
		if !ok {
			m.log.Debug("skipping unknown system in save", log.String("system", key))
			continue
		}
		if err = system.Deserialize(migrated.Systems[key]); err != nil {
			return m.failLoad(slot, fmt.Errorf("restoring system %q: %w", key, err))
		}
	}

	if migrated.CurrentSceneID != "" {
		if err = m.registry.RestoreScene(migrated.CurrentSceneID); err != nil {
			return m.failLoad(slot, fmt.Errorf("restoring scene %q: %w", migrated.CurrentSceneID, err))
		}
	}

	m.log.Info("game loaded", log.String("slot", slot), log.String("version", migrated.Version))
	_ = m.bus.Publish(bus.NewEvent(EventLoaded, "save", map[string]any{
		"slot": slot, "version": migrated.Version,
	}, nil))
	return nil
}

// verifyChecksum compares the stored checksum against the decoded systems
// map. A mismatch is worth a warning, not a refusal: the systems map may
// still restore fine, and refusing would strand the player's save.
func (m *Manager) verifyChecksum(slot string, payload *Payload) {
	stored, ok := payload.Metadata[metaChecksum].(string)
	if !ok || stored == "" {
		return
	}
	computed, err := systemsChecksum(payload.Systems)
	if err != nil || computed == stored {
		return
	}
	m.log.Warn("save checksum mismatch", log.String("slot", slot),
		log.Error(fault.New(fault.CodeChecksumMismatch,
			fmt.Sprintf("stored %s, computed %s", stored, computed), fault.ErrChecksumMismatch)))
}

func (m *Manager) failLoad(slot string, err error) error {
	m.log.Error("load failed", log.String("slot", slot), log.Error(err))
	_ = m.bus.Publish(bus.NewEvent(EventLoadFailed, "save", map[string]any{
		"slot": slot, "error": err.Error(),
	}, nil))
	return err
}

// Delete removes a slot and reports whether it existed.
func (m *Manager) Delete(slot string) (bool, error) {
	return m.adapter.Delete(slot)
}

// Slots lists the stored slots.
func (m *Manager) Slots() ([]storage.SlotInfo, error) {
	return m.adapter.List()
}
