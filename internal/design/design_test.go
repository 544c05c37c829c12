package design

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"design.yaml", FormatYAML},
		{"design.YML", FormatYAML},
		{"a/b/design.toml", FormatTOML},
		{"design.json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatFromPath("design.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParse_AllFormatsAgreeOnKeys(t *testing.T) {
	docs := map[Format]string{
		FormatYAML: "name: Checkout\npages:\n  - cart\n  - payment\ntheme:\n  color: blue\n",
		FormatTOML: "name = \"Checkout\"\npages = [\"cart\", \"payment\"]\n[theme]\ncolor = \"blue\"\n",
		FormatJSON: `{"name":"Checkout","pages":["cart","payment"],"theme":{"color":"blue"}}`,
	}
	for format, doc := range docs {
		t.Run(string(format), func(t *testing.T) {
			d, err := Parse([]byte(doc), format)
			require.NoError(t, err)
			assert.Equal(t, "Checkout", d.Name())
			assert.Len(t, d, 3)
			assert.Contains(t, d, "pages")
			assert.Contains(t, d, "theme")
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSON} {
		d, err := Parse([]byte("  \n"), format)
		require.NoError(t, err)
		assert.NotNil(t, d)
		assert.Empty(t, d)
	}

	d, err := Parse([]byte("null"), FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("- just\n- a list\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("name = "), FormatTOML)
	assert.Error(t, err)

	_, err = Parse([]byte("{"), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte("a: 1"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecode_TooLarge(t *testing.T) {
	big := strings.NewReader(strings.Repeat("x", MaxSize+1))
	_, err := Decode(big, FormatJSON)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Dashboard\nwidgets: 4\n"), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", d.Name())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "design.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
