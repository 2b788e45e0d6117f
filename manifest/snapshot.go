package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// snapshot is the CBOR form of a whitelist. Modules keep registration order;
// overrides are a map and so are sorted by canonical encoding.
type snapshot struct {
	Version   int               `cbor:"1,keyasint"`
	Modules   []snapshotModule  `cbor:"2,keyasint"`
	Overrides map[string]string `cbor:"3,keyasint,omitempty"`
}

type snapshotModule struct {
	Name    string          `cbor:"1,keyasint"`
	Entries []snapshotEntry `cbor:"2,keyasint"`
}

type snapshotEntry struct {
	Class   string   `cbor:"1,keyasint"`
	Methods []string `cbor:"2,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("manifest: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

func toSnapshot(wl *Whitelist) *snapshot {
	s := &snapshot{
		Version: SnapshotVersion,
		Modules: make([]snapshotModule, len(wl.modules)),
	}
	if len(wl.overrides) > 0 {
		s.Overrides = wl.Overrides()
	}
	for i, m := range wl.modules {
		s.Modules[i] = snapshotOf(m)
	}
	return s
}

func snapshotOf(m Module) snapshotModule {
	sm := snapshotModule{Name: m.Name, Entries: make([]snapshotEntry, len(m.Entries))}
	for j, e := range m.Entries {
		sm.Entries[j] = snapshotEntry{Class: e.Class, Methods: append([]string{}, e.Methods...)}
	}
	return sm
}

// MarshalSnapshot serializes a whitelist to deterministic CBOR bytes. Equal
// whitelists registered in the same order always produce equal bytes.
func MarshalSnapshot(wl *Whitelist) ([]byte, error) {
	return cborEncMode.Marshal(toSnapshot(wl))
}

// UnmarshalSnapshot decodes CBOR bytes produced by MarshalSnapshot and
// re-validates them.
func UnmarshalSnapshot(data []byte) (*Whitelist, error) {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, &ConfigError{Msg: "malformed snapshot", Err: err}
	}
	if s.Version != SnapshotVersion {
		return nil, schemaErrorf("", "unsupported snapshot version %d", s.Version)
	}

	b := NewBuilder()
	for _, sm := range s.Modules {
		m := Module{Name: sm.Name, Entries: make([]Entry, len(sm.Entries))}
		for j, se := range sm.Entries {
			m.Entries[j] = Entry{Class: se.Class, Methods: se.Methods}
		}
		if err := b.Register(m); err != nil {
			return nil, err
		}
	}
	for _, ns := range sortedKeys(s.Overrides) {
		if err := b.SetNamespacePrefixOverride(ns, s.Overrides[ns]); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Digest returns the hex SHA-256 of the whitelist's snapshot.
func Digest(wl *Whitelist) (string, error) {
	data, err := MarshalSnapshot(wl)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ModuleDigest returns the hex SHA-256 of a single module's snapshot.
func ModuleDigest(m Module) (string, error) {
	data, err := cborEncMode.Marshal(snapshotOf(m))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
