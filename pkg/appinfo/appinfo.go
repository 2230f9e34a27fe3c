package appinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
)

// KeyDeviceID is the storage key of a generated device id.
const KeyDeviceID = "linksquared_device_id"

var ErrInvalidMetadata = errors.New("appinfo: invalid metadata")

// Metadata describes the running app and device.
type Metadata struct {
	Version    string   `yaml:"version"`
	Build      string   `yaml:"build"`
	Bundle     string   `yaml:"bundle"`
	DeviceID   string   `yaml:"device_id"`
	DeviceName string   `yaml:"device_name"`
	UserAgent  string   `yaml:"user_agent"`
	URISchemes []string `yaml:"uri_schemes"`
}

// Source provides the current metadata.
type Source interface {
	Metadata() Metadata
}

// Static is a fixed Source.
type Static Metadata

// Metadata returns s as Metadata.
func (s Static) Metadata() Metadata {
	m := Metadata(s)
	m.URISchemes = slices.Clone(m.URISchemes)
	return m
}

// HasURISchemes reports whether the app declares at least one URI scheme
// for links to open it.
func (m Metadata) HasURISchemes() bool {
	for _, s := range m.URISchemes {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// Details converts the metadata into the backend's app description.
func (m Metadata) Details() api.AppDetails {
	return api.AppDetails{
		AppVersion: m.Version,
		Build:      m.Build,
		Bundle:     m.Bundle,
		Device:     m.DeviceName,
		VendorID:   m.DeviceID,
		UserAgent:  m.UserAgent,
	}
}

type yamlFile struct {
	Metadata     `yaml:",inline"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
}

// ParseYAML decodes metadata. When device_name is absent it is derived from
// manufacturer and model.
func ParseYAML(data []byte) (Metadata, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Metadata{}, errors.Join(ErrInvalidMetadata, err)
	}
	m := f.Metadata
	if m.DeviceName == "" && (f.Manufacturer != "" || f.Model != "") {
		m.DeviceName = DeviceName(f.Manufacturer, f.Model)
	}
	if m.Bundle == "" {
		return Metadata{}, fmt.Errorf("%w: bundle is required", ErrInvalidMetadata)
	}
	return m, nil
}

// LoadYAML reads metadata from the YAML file at path.
func LoadYAML(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("appinfo: read metadata file: %w", err)
	}
	return ParseYAML(data)
}

// DeviceName joins manufacturer and model unless the model already starts
// with the manufacturer, and capitalizes the first letter.
func DeviceName(manufacturer, model string) string {
	manufacturer = strings.TrimSpace(manufacturer)
	model = strings.TrimSpace(model)

	name := model
	switch {
	case manufacturer == "":
	case model == "":
		name = manufacturer
	case !strings.HasPrefix(strings.ToLower(model), strings.ToLower(manufacturer)):
		name = manufacturer + " " + model
	}
	if name == "" {
		return ""
	}

	_, size := utf8.DecodeRuneInString(name)
	return cases.Upper(language.Und).String(name[:size]) + name[size:]
}

// withDeviceID overrides the device id of another source.
type withDeviceID struct {
	Source
	id string
}

func (s withDeviceID) Metadata() Metadata {
	m := s.Source.Metadata()
	m.DeviceID = s.id
	return m
}

// EnsureDeviceID returns src unchanged when it reports a device id.
// Otherwise it returns a Source whose device id is read from store under
// KeyDeviceID, generating and persisting a new one on first use.
func EnsureDeviceID(ctx context.Context, store kvstore.Store, src Source) (Source, error) {
	if src.Metadata().DeviceID != "" {
		return src, nil
	}

	id, err := store.Get(ctx, KeyDeviceID)
	if err == nil && id != "" {
		return withDeviceID{Source: src, id: id}, nil
	}
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("appinfo: read device id: %w", err)
	}

	id = uuid.NewString()
	if err := store.Put(ctx, KeyDeviceID, id); err != nil {
		return nil, fmt.Errorf("appinfo: persist device id: %w", err)
	}
	return withDeviceID{Source: src, id: id}, nil
}
