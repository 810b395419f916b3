package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

var want = map[string]any{
	"create": map[string]any{
		"x":  int64(1),
		"ys": []any{1.5, "a"},
		"ok": true,
	},
}

var sources = map[string]string{
	"spec.yaml": `
create:
  x: 1
  ys: [1.5, a]
  ok: true
`,
	"spec.json": `{"create": {"x": 1, "ys": [1.5, "a"], "ok": true}}`,
	"spec.toml": `
[create]
x = 1
ys = [1.5, "a"]
ok = true
`,
	"spec.hcl": `
create = {
  x  = 1
  ys = [1.5, "a"]
  ok = true
}
`,
	"spec.cue": `
create: {
	x:  1
	ys: [1.5, "a"]
	ok: true
}
`,
}

// writeFile creates a file under a temp dir and returns its path.
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_AllFormatsDecodeToTheSameShape(t *testing.T) {
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			got, err := Load(writeFile(t, name, []byte(src)))
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestLoad_CBOR(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{
		"create": map[string]any{"x": 1, "ys": []any{1.5, "a"}, "ok": true},
	})
	require.NoError(t, err)

	got, err := Load(writeFile(t, "spec.cbor", data))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := Load(writeFile(t, "spec.ini", []byte("a=1")))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_SyntaxErrorIsInvalidFormat(t *testing.T) {
	_, err := Load(writeFile(t, "bad.json", []byte(`{"create": `)))
	require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
}

func TestDecode_RootMustBeMapping(t *testing.T) {
	_, err := Decode([]byte("- 1\n- 2\n"), FormatYAML, "list.yaml")
	require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
	require.ErrorIs(t, err, ErrNotMapping)
}

func TestDecode_EmptyDocument(t *testing.T) {
	got, err := Decode(nil, FormatYAML, "empty.yaml")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecode_LargeIntegersKeepPrecision(t *testing.T) {
	got, err := Decode([]byte(`{"n": 9007199254740993}`), FormatJSON, "n.json")
	require.NoError(t, err)
	require.Equal(t, int64(9007199254740993), got["n"])
}

func TestLoadObject_RequiresSingleKey(t *testing.T) {
	path := writeFile(t, "two.yaml", []byte("a: 1\nb: 2\n"))
	_, err := LoadObject(path)
	require.ErrorIs(t, err, afberrors.ErrInvalidFormat)
	require.ErrorIs(t, err, ErrNotSingleKey)

	path = writeFile(t, "one.yaml", []byte("create: {x: 1}\n"))
	got, err := LoadObject(path)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"create": map[string]any{"x": int64(1)}}, got)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yml")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)

	f, err = ParseFormat(".hcl")
	require.NoError(t, err)
	require.Equal(t, FormatHCL, f)

	_, err = ParseFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
	require.Len(t, Formats(), 6)
}

func TestDecode_NonStringKeysAreKept(t *testing.T) {
	got, err := Decode([]byte("labels:\n  1: a\n  2: b\nnames:\n  x: 1\n"), FormatYAML, "labels.yaml")
	require.NoError(t, err)
	require.Equal(t, map[any]any{int64(1): "a", int64(2): "b"}, got["labels"])
	require.Equal(t, map[string]any{"x": int64(1)}, got["names"])

	data, err := cbor.Marshal(map[string]any{"labels": map[int]string{1: "a"}})
	require.NoError(t, err)
	got, err = Decode(data, FormatCBOR, "labels.cbor")
	require.NoError(t, err)
	require.Equal(t, map[any]any{int64(1): "a"}, got["labels"])
}
