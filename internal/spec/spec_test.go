package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensions_Valid(t *testing.T) {
	tests := []struct {
		name string
		dims Dimensions
		want bool
	}{
		{"all positive", Dimensions{Width: 13, Depth: 2.5, Height: 5}, true},
		{"zero width", Dimensions{Width: 0, Depth: 2, Height: 2}, false},
		{"negative depth", Dimensions{Width: 1, Depth: -1, Height: 2}, false},
		{"empty", Dimensions{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dims.Valid())
		})
	}
}

func TestDimensions_Volume(t *testing.T) {
	assert.InDelta(t, 162.5, Dimensions{Width: 13, Depth: 2.5, Height: 5}.Volume(), 1e-9)
	assert.Zero(t, Dimensions{Width: 13}.Volume())
}

func TestSpecification_Fingerprint(t *testing.T) {
	base := Specification{
		Product:        Dimensions{Width: 13, Depth: 2.5, Height: 5},
		FrontFaceCount: 1,
		BrandName:      "Acme",
	}

	t.Run("stable for equal specs", func(t *testing.T) {
		assert.Equal(t, base.Fingerprint(), base.Fingerprint())
	})

	t.Run("changes with any field", func(t *testing.T) {
		changed := base
		changed.FrontFaceCount = 2
		assert.NotEqual(t, base.Fingerprint(), changed.Fingerprint())

		changed = base
		changed.Materials = []string{"acrylic"}
		assert.NotEqual(t, base.Fingerprint(), changed.Fingerprint())
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "spec.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
product:
  width: 13
  depth: 2.5
  height: 5
shelf:
  width: 15
  depth: 15
  height: 8
front_face_count: 1
back_to_back_count: 12
shelf_count: 1
brand_name: Acme
materials: [acrylic, metal]
`), 0o644))

		s, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 13.0, s.Product.Width)
		assert.Equal(t, 1, s.FrontFaceCount)
		assert.Equal(t, 12, s.BackToBackCount)
		assert.Equal(t, "Acme", s.BrandName)
		assert.Equal(t, []string{"acrylic", "metal"}, s.Materials)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "spec.json")
		require.NoError(t, os.WriteFile(path, []byte(
			`{"product":{"width":10,"depth":4,"height":20},"shelfCount":3,"productName":"Bottle"}`), 0o644))

		s, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 10.0, s.Product.Width)
		assert.Equal(t, 3, s.ShelfCount)
		assert.Equal(t, "Bottle", s.ProductName)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "spec.toml")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
