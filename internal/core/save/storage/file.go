package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/footlight/footlight/pkg/sequence"
)

const fileExt = ".json"

// FileAdapter stores each slot as one JSON file under a directory.
type FileAdapter struct {
	dir string
}

func NewFileAdapter(dir string) *FileAdapter {
	return &FileAdapter{dir: dir}
}

// SlotPath returns where a slot lives on disk.
func (a *FileAdapter) SlotPath(slot string) string {
	return filepath.Join(a.dir, slot+fileExt)
}

// slot names become file names, so anything that walks the tree is out
func validSlot(slot string) error {
	if slot == "" || slot == "." || slot == ".." || strings.ContainsAny(slot, `/\`) {
		return fmt.Errorf("invalid slot name %q", slot)
	}
	return nil
}

func (a *FileAdapter) Save(slot string, data []byte) (bool, error) {
	if err := validSlot(slot); err != nil {
		return false, err
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return false, fmt.Errorf("creating save dir: %w", err)
	}
	if err := os.WriteFile(a.SlotPath(slot), data, 0644); err != nil {
		return false, fmt.Errorf("writing slot %q: %w", slot, err)
	}
	return true, nil
}

func (a *FileAdapter) Load(slot string) ([]byte, error) {
	if err := validSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.SlotPath(slot))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %q: %w", slot, err)
	}
	return data, nil
}

func (a *FileAdapter) Delete(slot string) (bool, error) {
	if err := validSlot(slot); err != nil {
		return false, err
	}
	err := os.Remove(a.SlotPath(slot))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	return true, nil
}

func (a *FileAdapter) List() ([]SlotInfo, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing save dir: %w", err)
	}

	var infos []SlotInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		info, statErr := entry.Info()
		if statErr != nil {
			continue
		}
		infos = append(infos, SlotInfo{
			Slot:      strings.TrimSuffix(entry.Name(), fileExt),
			Timestamp: info.ModTime().UnixMilli(),
			Size:      info.Size(),
		})
	}
	return sequence.From(infos).
		Sort(func(a, b SlotInfo) bool { return a.Slot < b.Slot }).
		Collect(), nil
}
