package authority

import (
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// Snapshot is a point-in-time copy of a cache's entries.
type Snapshot map[string]Content

// SnapshotFile is the on-disk form of a Snapshot. API and Tag record what
// the entries were extracted for so that a snapshot is only reused by a
// compatible run.
type SnapshotFile struct {
	API     Kind     `json:"api" yaml:"api"`
	Tag     string   `json:"tag" yaml:"tag"`
	SavedAt utc.Time `json:"saved_at" yaml:"saved_at"`
	Entries Snapshot `json:"entries" yaml:"entries"`
}

// WriteSnapshot encodes snap as YAML.
func WriteSnapshot(w io.Writer, api Kind, tag string, snap Snapshot) error {
	file := SnapshotFile{
		API:     api,
		Tag:     tag,
		SavedAt: utc.Now(),
		Entries: snap,
	}
	data, err := yaml.MarshalWithOptions(file, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return errors.WrapParse("yaml", "", err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.WrapIO("write", "snapshot", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*SnapshotFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", "snapshot", err)
	}
	var file SnapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	if file.Entries == nil {
		file.Entries = Snapshot{}
	}
	return &file, nil
}

// SaveSnapshotFile writes snap to path, creating parent directories.
func SaveSnapshotFile(path string, api Kind, tag string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	if err := WriteSnapshot(f, api, tag, snap); err != nil {
		_ = f.Close()
		return err
	}
	return errors.WrapIO("close", path, f.Close())
}

// LoadSnapshotFile reads a snapshot from path.
func LoadSnapshotFile(path string) (*SnapshotFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	file, err := ReadSnapshot(f)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	return file, nil
}
