package imageutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	return buf.Bytes()
}

func TestPrepareUploadPassesThroughPNG(t *testing.T) {
	data := encodePNG(t, 8, 8)

	prepared, mime, err := PrepareUpload(data, DefaultMaxEdge)
	if err != nil {
		t.Fatalf("PrepareUpload error: %v", err)
	}
	if mime != MimePNG {
		t.Fatalf("unexpected mime: %s", mime)
	}
	if !bytes.Equal(prepared, data) {
		t.Fatal("small png must pass through unchanged")
	}
}

func TestPrepareUploadConvertsBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode bmp: %v", err)
	}

	prepared, mime, err := PrepareUpload(buf.Bytes(), DefaultMaxEdge)
	if err != nil {
		t.Fatalf("PrepareUpload error: %v", err)
	}
	if mime != MimePNG {
		t.Fatalf("bmp should convert to png, got %s", mime)
	}
	if SniffMime(prepared) != MimePNG {
		t.Fatalf("prepared bytes are not png: %s", SniffMime(prepared))
	}
}

func TestPrepareUploadDownscales(t *testing.T) {
	data := encodePNG(t, 64, 32)

	prepared, _, err := PrepareUpload(data, 16)
	if err != nil {
		t.Fatalf("PrepareUpload error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(prepared))
	if err != nil {
		t.Fatalf("failed to decode prepared image: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Fatalf("unexpected resized bounds: %v", img.Bounds())
	}
}

func TestPrepareUploadRejectsUnsupported(t *testing.T) {
	if _, _, err := PrepareUpload([]byte("plain text, not an image"), DefaultMaxEdge); err == nil {
		t.Fatal("expected error for unsupported content")
	}
}
