package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchharvest/watchharvest/internal/types"
)

type memoryStore struct {
	writes [][]byte
	fail   bool
}

func (m *memoryStore) WriteAll(data []byte) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	return nil
}

func record(title, instant string, channel *types.Subtitle) types.ActivityRecord {
	return types.NewActivityRecord(title, "https://www.youtube.com/watch?v="+title, channel, instant)
}

func TestMarshalRecordsLayout(t *testing.T) {
	records := []types.ActivityRecord{
		record("a", "2024-03-05T10:20:00Z", &types.Subtitle{Name: "Chan <1>", URL: "https://www.youtube.com/channel/UC1"}),
		record("b", "2024-03-04T15:45:00Z", nil),
	}
	data, err := MarshalRecords(records)
	require.NoError(t, err)

	expected := `[
  {
    "header": "YouTube",
    "title": "a",
    "titleUrl": "https://www.youtube.com/watch?v=a",
    "subtitles": [{"name": "Chan <1>", "url": "https://www.youtube.com/channel/UC1"}],
    "time": "2024-03-05T10:20:00Z",
    "products": ["YouTube"],
    "activityControls": ["YouTube watch history"]
  },{
    "header": "YouTube",
    "title": "b",
    "titleUrl": "https://www.youtube.com/watch?v=b",
    "subtitles": [],
    "time": "2024-03-04T15:45:00Z",
    "products": ["YouTube"],
    "activityControls": ["YouTube watch history"]
  }
]`
	assert.Equal(t, expected, string(data))
}

func TestMarshalRecordsEmpty(t *testing.T) {
	data, err := MarshalRecords([]types.ActivityRecord{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMarshalRecordsMultiElementArrays(t *testing.T) {
	items := []map[string]any{
		{"list": []any{1, "zwei", map[string]any{}}, "nested": []any{[]any{"x"}}},
	}
	data, err := MarshalRecords(items)
	require.NoError(t, err)

	expected := `[
  {
    "list": [
      1,
      "zwei",
      {}
    ],
    "nested": [["x"]]
  }
]`
	assert.Equal(t, expected, string(data))

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
}

func TestMarshalRecordsRejectsNonArray(t *testing.T) {
	_, err := MarshalRecords(map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestIncrementalWriterSnapshots(t *testing.T) {
	store := &memoryStore{}
	w := NewIncrementalWriter(store)

	accepted := []types.ActivityRecord{
		record("one", "2024-03-05T10:20:00Z", nil),
		record("two", "2024-03-05T09:00:00Z", &types.Subtitle{Name: "c", URL: "u"}),
		record("three", "2024-03-04T23:59:00Z", nil),
	}
	for i, r := range accepted {
		require.NoError(t, w.Append(r))
		require.Len(t, store.writes, i+1)

		var persisted []types.ActivityRecord
		require.NoError(t, json.Unmarshal(store.writes[i], &persisted))
		assert.Equal(t, accepted[:i+1], persisted)
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, accepted, w.Records())
}

func TestIncrementalWriterFailedAppend(t *testing.T) {
	store := &memoryStore{}
	w := NewIncrementalWriter(store)
	require.NoError(t, w.Append(record("one", "2024-03-05T10:20:00Z", nil)))

	store.fail = true
	err := w.Append(record("two", "2024-03-05T09:00:00Z", nil))
	require.Error(t, err)
	assert.Equal(t, 1, w.Len())
	assert.Len(t, store.writes, 1)
}

func TestFileStoreAtomicRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "history.json")

	store, err := NewStore(&WriterConfig{Type: FILE_WRITER_TYPE, FilePath: path})
	require.NoError(t, err)
	w := NewIncrementalWriter(store)

	require.NoError(t, w.Append(record("one", "2024-03-05T10:20:00Z", nil)))
	require.NoError(t, w.Append(record("two", "2024-03-05T09:00:00Z", nil)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var persisted []types.ActivityRecord
	require.NoError(t, json.Unmarshal(content, &persisted))
	require.Len(t, persisted, 2)
	assert.Equal(t, "two", persisted[1].Title)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreKeepsPreviousContentOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.WriteAll([]byte("[]")))

	// a directory in place of the target makes the rename fail
	blocked, err := NewFileStore(filepath.Join(dir, "blocked"))
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "blocked"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked", "x"), []byte("x"), 0644))
	assert.Error(t, blocked.WriteAll([]byte("[1]")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(content))
}

func TestNewStoreUnknownType(t *testing.T) {
	_, err := NewStore(&WriterConfig{Type: "s3"})
	assert.Error(t, err)

	_, err = NewFileStore("")
	assert.Error(t, err)
}
