package appinfo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
)

func TestDeviceName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		manufacturer, model, want string
	}{
		{"Google", "Pixel 9", "Google Pixel 9"},
		{"samsung", "SM-S921B", "Samsung SM-S921B"},
		{"Motorola", "motorola edge 50", "Motorola edge 50"},
		{"HTC", "HTC One", "HTC One"},
		{"", "iPhone15,2", "IPhone15,2"},
		{"xiaomi", "", "Xiaomi"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, appinfo.DeviceName(tt.manufacturer, tt.model), "%s/%s", tt.manufacturer, tt.model)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	m, err := appinfo.ParseYAML([]byte(`
version: 2.1.0
build: "210"
bundle: com.example.app
manufacturer: google
model: Pixel 9
user_agent: Example/2.1.0
uri_schemes: [example]
`))
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", m.Version)
	assert.Equal(t, "210", m.Build)
	assert.Equal(t, "Google Pixel 9", m.DeviceName)
	assert.True(t, m.HasURISchemes())
	assert.Empty(t, m.DeviceID)

	d := m.Details()
	assert.Equal(t, "2.1.0", d.AppVersion)
	assert.Equal(t, "com.example.app", d.Bundle)
	assert.Equal(t, "Google Pixel 9", d.Device)
	assert.Nil(t, d.URL)

	_, err = appinfo.ParseYAML([]byte("version: 1"))
	assert.ErrorIs(t, err, appinfo.ErrInvalidMetadata)

	_, err = appinfo.ParseYAML([]byte(":::"))
	assert.ErrorIs(t, err, appinfo.ErrInvalidMetadata)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bundle: com.example\ndevice_name: Test Device\n"), 0o600))

	m, err := appinfo.LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Device", m.DeviceName)
	assert.False(t, m.HasURISchemes())

	_, err = appinfo.LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHasURISchemes(t *testing.T) {
	t.Parallel()
	assert.False(t, appinfo.Metadata{}.HasURISchemes())
	assert.False(t, appinfo.Metadata{URISchemes: []string{" "}}.HasURISchemes())
	assert.True(t, appinfo.Metadata{URISchemes: []string{"", "app"}}.HasURISchemes())
}

func TestStaticCopiesSchemes(t *testing.T) {
	t.Parallel()
	src := appinfo.Static{Bundle: "b", URISchemes: []string{"app"}}
	m := src.Metadata()
	m.URISchemes[0] = "changed"
	assert.Equal(t, "app", src.Metadata().URISchemes[0])
}

func TestEnsureDeviceID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("keeps host id", func(t *testing.T) {
		t.Parallel()
		store := kvstore.NewMemory()
		src, err := appinfo.EnsureDeviceID(ctx, store, appinfo.Static{DeviceID: "android-id"})
		require.NoError(t, err)
		assert.Equal(t, "android-id", src.Metadata().DeviceID)

		_, err = store.Get(ctx, appinfo.KeyDeviceID)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("generates once and reuses", func(t *testing.T) {
		t.Parallel()
		store := kvstore.NewMemory()
		first, err := appinfo.EnsureDeviceID(ctx, store, appinfo.Static{Bundle: "b"})
		require.NoError(t, err)
		id := first.Metadata().DeviceID
		require.NotEmpty(t, id)
		assert.Equal(t, "b", first.Metadata().Bundle)

		second, err := appinfo.EnsureDeviceID(ctx, store, appinfo.Static{Bundle: "b"})
		require.NoError(t, err)
		assert.Equal(t, id, second.Metadata().DeviceID)
	})
}
