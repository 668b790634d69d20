// Package ziputil handles ladder archives entirely in memory so the same
// bytes can be inspected any number of times before anything touches disk.
package ziputil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// junkPrefix marks platform metadata entries that are never real files.
const junkPrefix = "__MACOSX"

func isJunk(name string) bool {
	return strings.HasPrefix(name, junkPrefix)
}

// BaseName strips any directory components and the extension from an
// archive entry name.
func BaseName(entryName string) string {
	base := path.Base(strings.ReplaceAll(entryName, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Open returns a reader over in-memory archive bytes.
func Open(data []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

// ListBaseNames verifies every file entry is readable and returns the
// extension-stripped base names of all real files, skipping directories
// and platform junk. A corrupt entry fails the whole listing.
func ListBaseNames(data []byte) ([]string, error) {
	zr, err := Open(data)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isJunk(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("corrupt archive entry %s: %w", f.Name, err)
		}
		if _, err := io.Copy(io.Discard, rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("corrupt archive entry %s: %w", f.Name, err)
		}
		rc.Close()
		names = append(names, BaseName(f.Name))
	}
	return names, nil
}

// Filter rebuilds the archive keeping only file entries whose stripped
// base name appears in keep. Directory entries and junk are dropped.
func Filter(data []byte, keep map[string]bool) ([]byte, error) {
	zr, err := Open(data)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isJunk(f.Name) {
			continue
		}
		if !keep[BaseName(f.Name)] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", f.Name, err)
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("rebuild archive entry %s: %w", f.Name, err)
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("copy archive entry %s: %w", f.Name, err)
		}
		rc.Close()
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize filtered archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadEntryBySuffix returns the contents of the first non-junk entry
// whose name ends with suffix. Suffix matching tolerates nested paths
// inside the archive.
func ReadEntryBySuffix(data []byte, suffix string) ([]byte, bool, error) {
	zr, err := Open(data)
	if err != nil {
		return nil, false, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isJunk(f.Name) {
			continue
		}
		if !strings.HasSuffix(f.Name, suffix) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, fmt.Errorf("read archive entry %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, false, fmt.Errorf("read archive entry %s: %w", f.Name, err)
		}
		return raw, true, nil
	}
	return nil, false, nil
}
