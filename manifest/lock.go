package manifest

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// LockFileName is the lock file written next to a manifest.
const LockFileName = "bindlist.lock"

// StaleLayout is reported by Stale when the module order or the namespace
// prefix overrides changed. Every generated name may be affected.
const StaleLayout = "(layout)"

// LockFile pins the digest of a whitelist and of each of its modules, so a
// generator can tell which modules changed since the last run.
type LockFile struct {
	Digest    string            `toml:"digest"`
	Overrides map[string]string `toml:"overrides,omitempty"`
	Modules   []LockedModule    `toml:"module"`
}

// LockedModule is one module entry in the lock file.
type LockedModule struct {
	Name    string `toml:"name"`
	Digest  string `toml:"digest"`
	Classes int    `toml:"classes"`
	Methods int    `toml:"methods"`
}

// LockPath returns the lock file path belonging to the manifest at path.
func LockPath(manifestPath string) string {
	return filepath.Join(filepath.Dir(manifestPath), LockFileName)
}

// NewLockFile computes a lock file for wl.
func NewLockFile(wl *Whitelist) (*LockFile, error) {
	digest, err := Digest(wl)
	if err != nil {
		return nil, err
	}
	lf := &LockFile{
		Digest:    digest,
		Overrides: wl.Overrides(),
		Modules:   make([]LockedModule, 0, len(wl.modules)),
	}
	for _, m := range wl.modules {
		md, err := ModuleDigest(m)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", m.Name, err)
		}
		methods := 0
		for _, e := range m.Entries {
			methods += len(e.Methods)
		}
		lf.Modules = append(lf.Modules, LockedModule{
			Name:    m.Name,
			Digest:  md,
			Classes: len(m.Entries),
			Methods: methods,
		})
	}
	return lf, nil
}

// FindLockedModule returns the locked entry for name, or nil.
func (lf *LockFile) FindLockedModule(name string) *LockedModule {
	for i := range lf.Modules {
		if lf.Modules[i].Name == name {
			return &lf.Modules[i]
		}
	}
	return nil
}

// Stale returns the names of modules in wl whose digest differs from the
// lock, followed by locked modules wl no longer registers, followed by
// StaleLayout if the order of the modules both share or the namespace prefix
// overrides changed. A nil slice means the lock is current.
func (lf *LockFile) Stale(wl *Whitelist) ([]string, error) {
	var stale []string
	for _, m := range wl.modules {
		md, err := ModuleDigest(m)
		if err != nil {
			return nil, err
		}
		locked := lf.FindLockedModule(m.Name)
		if locked == nil || locked.Digest != md {
			stale = append(stale, m.Name)
		}
	}
	var lockedOrder []string
	for _, lm := range lf.Modules {
		if _, ok := wl.byName[lm.Name]; !ok {
			stale = append(stale, lm.Name)
			continue
		}
		lockedOrder = append(lockedOrder, lm.Name)
	}

	var order []string
	for _, m := range wl.modules {
		if lf.FindLockedModule(m.Name) != nil {
			order = append(order, m.Name)
		}
	}
	layout := !slices.Equal(order, lockedOrder) || !maps.Equal(lf.Overrides, wl.overrides)
	if !layout && len(stale) == 0 {
		// The digest covers everything checked above, so a mismatch here
		// means the lock was edited by hand.
		digest, err := Digest(wl)
		if err != nil {
			return nil, err
		}
		layout = digest != lf.Digest
	}
	if layout {
		logger.Debugf("lock: module order or namespace prefix overrides changed")
		stale = append(stale, StaleLayout)
	}
	return stale, nil
}

// WriteLock writes lf to path.
func WriteLock(path string, lf *LockFile) error {
	var buf bytes.Buffer
	buf.WriteString("# Generated by bindlist. Do not edit.\n\n")
	if err := toml.NewEncoder(&buf).Encode(lf); err != nil {
		return fmt.Errorf("encoding lock file: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadLock reads a lock file. Returns nil, nil if the file does not exist.
func ReadLock(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var lf LockFile
	if _, err := toml.Decode(string(data), &lf); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &lf, nil
}
