package kilnlog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilnlog/kilnlog"
)

func TestBlobPath(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{"lowercase extension kept", "mug.jpg", "items/item-1/ph-1.jpg"},
		{"uppercase extension lowered", "MUG.JPG", "items/item-1/ph-1.jpg"},
		{"last extension wins", "glaze.test.PNG", "items/item-1/ph-1.png"},
		{"no extension", "mug", "items/item-1/ph-1"},
		{"empty file name", "", "items/item-1/ph-1"},
		{"trailing dot ignored", "mug.", "items/item-1/ph-1"},
		{"dotfile name", ".hidden", "items/item-1/ph-1.hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kilnlog.BlobPath("item-1", "ph-1", tt.fileName))
		})
	}
}

func TestIsValidBlobPath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{"regular blob path", "items/item-1/ph-1.jpg", true},
		{"no extension", "items/item-1/ph-1", true},
		{"empty", "", false},
		{"root", "/", false},
		{"dot", ".", false},
		{"absolute", "/items/item-1/ph-1.jpg", false},
		{"trailing slash", "items/item-1/", false},
		{"parent traversal", "items/../secrets", false},
		{"double slash", "items//ph-1.jpg", false},
		{"backslash", `items\item-1\ph-1.jpg`, false},
		{"query metacharacter", "items/item-1/ph-1.jpg?x=1", false},
		{"embedded space", "items/item 1/ph-1.jpg", false},
		{"control character", "items/item-1/ph\x00.jpg", false},
		{"current-dir segment", "items/./ph-1.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, kilnlog.IsValidBlobPath(tt.path))
		})
	}
}
