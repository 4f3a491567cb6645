package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManifest(t *testing.T) {
	const doc = `
dir = "seed"

[[items]]
path = "front-desk.jpg"
title = "Front desk"

[[items]]
path = "/abs/Tour.PNG"

[[items]]
path = "raw.bin"
content_type = "video/webm"
`
	m, err := readManifest(strings.NewReader(doc), "/srv/gym/gallery.toml")
	require.NoError(t, err)
	require.Len(t, m.Items, 3)

	assert.Equal(t, filepath.Join("/srv/gym/seed", "front-desk.jpg"), m.Items[0].Path)
	assert.Equal(t, "Front desk", m.Items[0].Title)
	assert.Equal(t, "image/jpeg", m.Items[0].ContentType)
	assert.Equal(t, "/abs/Tour.PNG", m.Items[1].Path)
	assert.Equal(t, "image/png", m.Items[1].ContentType)
	assert.Equal(t, "video/webm", m.Items[2].ContentType)
}

func TestReadManifest_DefaultDir(t *testing.T) {
	m, err := readManifest(strings.NewReader("[[items]]\npath = \"a.png\"\n"), "/data/gallery.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "a.png"), m.Items[0].Path)
}

func TestReadManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not toml", doc: "[[items]\npath="},
		{name: "no items", doc: `dir = "x"`},
		{name: "empty path", doc: "[[items]]\ntitle = \"x\"\n"},
		{name: "unknown key", doc: "[[items]]\npath = \"a.jpg\"\nposition = 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := readManifest(strings.NewReader(tt.doc), "gallery.toml")
			assert.Error(t, err)
			assert.Nil(t, m)
		})
	}
}
