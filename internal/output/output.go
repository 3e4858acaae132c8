// Package output writes run artifacts to disk all-or-nothing.
package output

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileMode is the permission of written artifacts.
const FileMode os.FileMode = 0o644

// Marshal renders v as two-space indented JSON with a trailing newline.
func Marshal(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "output: marshal")
	}
	return append(b, '\n'), nil
}

// WriteJSON writes v to path through a temp file in the same directory, so
// readers see either the previous file or the complete new one.
func WriteJSON(path string, v any) error {
	b, err := Marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, b, FileMode)
}

func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir %s", dir)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "output: create temp file")
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "output: write temp file")
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "output: chmod temp file")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "output: sync temp file")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "output: close temp file")
	}

	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "output: replace %s", path)
	}
	return nil
}
