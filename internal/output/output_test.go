package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-mapper/internal/model"
)

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "legal_contacts.json")
	firms := []model.FirmContacts{{
		Firm:          "Acme LLP",
		Domain:        "acme.example",
		Source:        "unknown",
		ExposureScore: 100,
		Contacts:      []model.MappedContact{},
	}}

	require.NoError(t, WriteJSON(path, firms))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "firm": "Acme LLP",
    "domain": "acme.example",
    "source": "unknown",
    "exposureScore": 100,
    "contacts": []
  }
]
`, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())
}

func TestWriteJSON_ReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteJSON(path, []string{"new"}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"new\"\n]\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteJSON_MarshalFailureKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := WriteJSON(path, map[string]any{"bad": make(chan int)})
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

func TestMarshal_TrailingNewline(t *testing.T) {
	b, err := Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(b))
}
