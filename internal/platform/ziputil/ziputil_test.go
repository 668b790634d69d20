package ziputil

import (
	"archive/zip"
	"bytes"
	"sort"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestBaseNameStripsPathAndExtension(t *testing.T) {
	cases := map[string]string{
		"0000_11.csv":            "0000_11",
		"nested/dir/0001_12.csv": "0001_12",
		"win\\path\\0002_13.CSV": "0002_13",
		"noext":                  "noext",
	}
	for in, want := range cases {
		if got := BaseName(in); got != want {
			t.Fatalf("BaseName(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestListBaseNamesSkipsDirsAndJunk(t *testing.T) {
	data := buildZip(t, map[string]string{
		"0000_11.csv":              "a",
		"sub/0001_12.csv":          "b",
		"sub/":                     "",
		"__MACOSX/._0000_11.csv":   "junk",
		"__MACOSX/sub/._souvenir":  "junk",
	})

	names, err := ListBaseNames(data)
	if err != nil {
		t.Fatalf("ListBaseNames: %v", err)
	}
	sort.Strings(names)
	want := []string{"0000_11", "0001_12"}
	if len(names) != len(want) {
		t.Fatalf("name count: want=%d got=%d (%v)", len(want), len(names), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d]: want=%q got=%q", i, want[i], names[i])
		}
	}
}

func TestListBaseNamesRejectsCorruptData(t *testing.T) {
	if _, err := ListBaseNames([]byte("not a zip at all")); err == nil {
		t.Fatalf("ListBaseNames: expected error for corrupt data")
	}
}

func TestFilterKeepsOnlyRequestedEntries(t *testing.T) {
	data := buildZip(t, map[string]string{
		"0000_11.csv": "keep",
		"0001_12.csv": "drop",
		"extra.txt":   "drop",
	})

	filtered, err := Filter(data, map[string]bool{"0000_11": true})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	names, err := ListBaseNames(filtered)
	if err != nil {
		t.Fatalf("ListBaseNames on filtered: %v", err)
	}
	if len(names) != 1 || names[0] != "0000_11" {
		t.Fatalf("filtered names: want=[0000_11] got=%v", names)
	}
}

func TestReadEntryBySuffixFindsNestedEntry(t *testing.T) {
	data := buildZip(t, map[string]string{
		"deep/nested/0000_11.csv": "payload",
	})

	raw, found, err := ReadEntryBySuffix(data, "0000_11.csv")
	if err != nil {
		t.Fatalf("ReadEntryBySuffix: %v", err)
	}
	if !found {
		t.Fatalf("ReadEntryBySuffix: entry not found")
	}
	if string(raw) != "payload" {
		t.Fatalf("entry content: want=%q got=%q", "payload", string(raw))
	}

	_, found, err = ReadEntryBySuffix(data, "missing.csv")
	if err != nil {
		t.Fatalf("ReadEntryBySuffix missing: %v", err)
	}
	if found {
		t.Fatalf("ReadEntryBySuffix: expected missing entry")
	}
}
