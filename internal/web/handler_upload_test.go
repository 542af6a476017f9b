package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffMedia(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantType string
		wantOK   bool
	}{
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, wantType: "image/jpeg", wantOK: true},
		{name: "png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, wantType: "image/png", wantOK: true},
		{name: "gif", data: []byte("GIF89a"), wantType: "image/gif", wantOK: true},
		{name: "webp", data: append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...), wantType: "image/webp", wantOK: true},
		{name: "riff audio", data: append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...)},
		{name: "bmp", data: append([]byte("BM"), make([]byte, 30)...)},
		{name: "pdf", data: []byte("%PDF-1.4 brochure")},
		{name: "html", data: []byte("<html><script>alert(1)</script></html>")},
		{name: "truncated riff", data: []byte("RIFF")},
		{name: "empty", data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotOK := sniffMedia(tt.data)
			assert.Equal(t, tt.wantOK, gotOK)
			assert.Equal(t, tt.wantType, gotType)
		})
	}
}
