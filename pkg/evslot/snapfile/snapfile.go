// Package snapfile stores evslot snapshots in files.
//
// A snapshot file is a JSON document carrying a format marker, a version and
// the snapshot itself. Files are replaced atomically, so a reader of the file
// sees either the previous snapshot or the new one, never a partial write.
package snapfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/sugawarayuuta/sonnet"

	"github.com/calvinalkan/evslot/pkg/evslot"
)

// Format is the marker stored in every snapshot file.
const Format = "evslot-snapshot"

// Version is the current file format version.
const Version = 1

// Sentinel errors returned by snapfile operations.
var (
	// ErrFormat indicates the file is not a snapshot file or is malformed.
	ErrFormat = errors.New("snapfile: invalid format")

	// ErrVersion indicates the file was written by an unsupported version.
	ErrVersion = errors.New("snapfile: unsupported version")
)

type document[V any] struct {
	Format   string             `json:"format"`
	Version  int                `json:"version"`
	Snapshot evslot.Snapshot[V] `json:"snapshot"`
}

// Marshal encodes s as a snapshot document.
func Marshal[V any](s evslot.Snapshot[V]) ([]byte, error) {
	data, err := sonnet.Marshal(document[V]{Format: Format, Version: Version, Snapshot: s})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a snapshot document.
func Unmarshal[V any](data []byte) (evslot.Snapshot[V], error) {
	var doc document[V]

	err := sonnet.Unmarshal(data, &doc)
	if err != nil {
		return evslot.Snapshot[V]{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if doc.Format != Format {
		return evslot.Snapshot[V]{}, fmt.Errorf("%w: format %q", ErrFormat, doc.Format)
	}

	if doc.Version != Version {
		return evslot.Snapshot[V]{}, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}

	return doc.Snapshot, nil
}

// Save writes s to path, atomically replacing any existing file.
func Save[V any](path string, s evslot.Snapshot[V]) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	return nil
}

// Load reads a snapshot written by [Save].
func Load[V any](path string) (evslot.Snapshot[V], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return evslot.Snapshot[V]{}, fmt.Errorf("read snapshot: %w", err)
	}

	s, err := Unmarshal[V](data)
	if err != nil {
		return evslot.Snapshot[V]{}, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Open loads the snapshot at path and builds a map from it.
func Open[V any](path string, opts evslot.Options[V]) (*evslot.ReadHandle[V], *evslot.WriteHandle[V], error) {
	s, err := Load[V](path)
	if err != nil {
		return nil, nil, err
	}

	return evslot.NewFromSnapshot(s, opts)
}
