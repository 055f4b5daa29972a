package sniffer

import (
	"bytes"
	"errors"
	"net/http"
	"testing"
)

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want MediaType
	}{
		{"png", append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, 0, 0, 0, 0), TypePNG},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG},
		{"gif", []byte("GIF89a\x01\x00"), TypeGIF},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), TypeWEBP},
		{"avif", []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00"), TypeAVIF},
		{"svg", []byte("  <svg xmlns=\"http://www.w3.org/2000/svg\">"), TypeSVG},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHead(tc.head)
			if err != nil {
				t.Fatalf("DetectHead: %v", err)
			}
			if got.Type != tc.want {
				t.Fatalf("got %s, want %s", got.Type, tc.want)
			}
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	if _, err := DetectHead([]byte("plain text")); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if _, err := DetectHead(nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType for empty input, got %v", err)
	}
}

func TestDetectReturnsHead(t *testing.T) {
	data := append([]byte{0xff, 0xd8, 0xff}, bytes.Repeat([]byte{1}, 1000)...)
	result, head, err := Detect(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Fatalf("unexpected mime %s", result.MIME)
	}
	if len(head) != HeadSize {
		t.Fatalf("expected %d head bytes, got %d", HeadSize, len(head))
	}
}

func TestMimeTypeFromHTTP(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "Image/PNG; charset=binary")
	if got := MimeTypeFromHTTP(h); got != "image/png" {
		t.Fatalf("unexpected %q", got)
	}
}
