package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// manifest lists the files imported by seed-gallery, in display order
type manifest struct {
	// Dir is the directory relative paths are resolved against, defaults to the manifest's directory
	Dir   string         `toml:"dir"`
	Items []manifestItem `toml:"items"`
}

type manifestItem struct {
	Path        string `toml:"path"`
	Title       string `toml:"title"`
	ContentType string `toml:"content_type"`
}

// readManifest decodes and validates a manifest. Relative paths are resolved against
// Dir, or the directory containing the manifest when Dir is empty.
func readManifest(r io.Reader, manifestPath string) (*manifest, error) {
	var m manifest
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest keys: %v", undecoded)
	}
	if len(m.Items) == 0 {
		return nil, fmt.Errorf("manifest has no items")
	}

	base := m.Dir
	if base == "" {
		base = filepath.Dir(manifestPath)
	} else if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(manifestPath), base)
	}

	for i := range m.Items {
		it := &m.Items[i]
		it.Path = strings.TrimSpace(it.Path)
		if it.Path == "" {
			return nil, fmt.Errorf("item %d: path is required", i)
		}
		if !filepath.IsAbs(it.Path) {
			it.Path = filepath.Join(base, it.Path)
		}
		if it.ContentType == "" {
			it.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(it.Path)))
		}
	}
	return &m, nil
}

// loadManifest reads the manifest file at path
func loadManifest(path string) (*manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()
	return readManifest(f, path)
}
