package save

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/pkg/sequence"
)

// MigrationFunc rewrites a payload from one schema version to the next.
// Implementations may mutate and return the input or build a fresh
// payload; the migrator treats the returned pointer as authoritative.
type MigrationFunc func(*Payload) *Payload

func migrationKey(from, to string) string { return from + "_to_" + to }

// canon maps loose version strings ("1.2.0") to the prefixed form the
// semver package compares ("v1.2.0"). Returns "" for invalid versions.
func canon(version string) string {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// Migrator walks save payloads through registered schema migrations.
// Migration keys form a chain over semantic versions; the walk visits
// every registered version between the payload's stamp and the engine's
// current version, in semver order.
//
// Migrate never fails: a hole in the chain degrades to a warned, partial
// migration and callers decide whether the result is usable.
type Migrator struct {
	log log.Log

	mu         sync.RWMutex
	migrations map[string]MigrationFunc
	versions   map[string]struct{}
}

func NewMigrator(logger log.Log) *Migrator {
	if logger == nil {
		logger = log.Nop()
	}
	return &Migrator{
		log:        logger,
		migrations: make(map[string]MigrationFunc),
		versions:   make(map[string]struct{}),
	}
}

// Register adds one migration step. Both endpoints must be valid semantic
// versions with from older than to.
func (m *Migrator) Register(from, to string, fn MigrationFunc) error {
	if fn == nil {
		return fault.New(fault.CodeInvalidConfig, "migration needs a function", fault.ErrInvalidConfig)
	}
	cf, ct := canon(from), canon(to)
	if cf == "" || ct == "" {
		return fault.New(fault.CodeInvalidConfig,
			fmt.Sprintf("migration endpoints %q -> %q are not semantic versions", from, to), fault.ErrInvalidConfig)
	}
	if semver.Compare(cf, ct) >= 0 {
		return fault.New(fault.CodeInvalidConfig,
			fmt.Sprintf("migration %q -> %q does not move forward", from, to), fault.ErrInvalidConfig)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := migrationKey(from, to)
	if _, exists := m.migrations[key]; exists {
		m.log.Warn("replacing migration", log.String("step", key))
	}
	m.migrations[key] = fn
	m.versions[from] = struct{}{}
	m.versions[to] = struct{}{}
	return nil
}

// Has reports whether a step is registered.
func (m *Migrator) Has(from, to string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.migrations[migrationKey(from, to)]
	return ok
}

// path returns every known version from from to to inclusive, in semver
// order. The known set is both endpoints plus every registered migration
// endpoint. An empty result means no ordered path exists.
func (m *Migrator) path(from, to string) []string {
	m.mu.RLock()
	known := make(map[string]string, len(m.versions)+2)
	for v := range m.versions {
		if c := canon(v); c != "" {
			known[v] = c
		}
	}
	m.mu.RUnlock()

	cf, ct := canon(from), canon(to)
	if cf == "" || ct == "" {
		return nil
	}
	known[from] = cf
	known[to] = ct

	versions := make([]string, 0, len(known))
	for v := range known {
		versions = append(versions, v)
	}
	sorted := sequence.From(versions).
		Sort(func(a, b string) bool { return semver.Compare(known[a], known[b]) < 0 }).
		Collect()

	start, end := -1, -1
	for i, v := range sorted {
		if v == from {
			start = i
		}
		if v == to {
			end = i
		}
	}
	if start < 0 || end < 0 || start > end {
		return nil
	}
	return sorted[start : end+1]
}

// Migrate walks the payload from its stamped version to currentVersion,
// applying each registered step in order. A payload already at
// currentVersion is returned untouched (same pointer). Whatever happens on
// the walk, the returned payload is stamped with currentVersion: a save
// left at an intermediate schema is the caller's judgement call, not an
// error.
func (m *Migrator) Migrate(payload *Payload, currentVersion string) *Payload {
	if payload == nil {
		return nil
	}
	from := payload.Version
	if from == "" {
		from = DefaultVersion
	}
	if from == currentVersion {
		return payload
	}

	path := m.path(from, currentVersion)
	if path == nil {
		m.log.Warn("no migration path, stamping version only",
			log.String("from", from), log.String("to", currentVersion))
		payload.Version = currentVersion
		return payload
	}

	m.mu.RLock()
	steps := make(map[string]MigrationFunc, len(m.migrations))
	for key, fn := range m.migrations {
		steps[key] = fn
	}
	m.mu.RUnlock()

	for i := 0; i+1 < len(path); i++ {
		key := migrationKey(path[i], path[i+1])
		fn, ok := steps[key]
		if !ok {
			m.log.Warn("missing migration step, stopping walk", log.String("step", key))
			break
		}
		next := fn(payload)
		if next == nil {
			m.log.Warn("migration step returned nothing, stopping walk", log.String("step", key))
			break
		}
		payload = next
		payload.Version = path[i+1]
		m.log.Debug("applied migration", log.String("step", key))
	}

	payload.Version = currentVersion
	return payload
}
