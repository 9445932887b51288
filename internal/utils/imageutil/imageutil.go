package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeBMP  = "image/bmp"
)

// DefaultMaxEdge is the largest dimension the staging API accepts without
// the server re-encoding the upload itself.
const DefaultMaxEdge = 4096

// SniffMime returns the detected content type of the image bytes.
func SniffMime(data []byte) string {
	return mimetype.Detect(data).String()
}

// PrepareUpload normalizes raw image bytes into a payload the staging API
// accepts: JPEG and PNG pass through, BMP is converted to PNG, and images
// larger than maxEdge on either side are downscaled first. The returned
// mime type describes the prepared bytes, not the input.
func PrepareUpload(data []byte, maxEdge int) ([]byte, string, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}

	mime := SniffMime(data)
	switch mime {
	case MimeJPEG, MimePNG:
	case MimeBMP:
		converted, err := ConvertBitmapToPNG(data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to convert bitmap: %w", err)
		}
		data = converted
		mime = MimePNG
	default:
		return nil, "", fmt.Errorf("unsupported image type: %s", mime)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxEdge && bounds.Dy() <= maxEdge {
		return data, mime, nil
	}

	resized := downscale(img, maxEdge)

	var output bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&output, resized, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(&output, resized)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode resized image: %w", err)
	}

	return output.Bytes(), mime, nil
}

func ConvertBitmapToPNG(bmpBytes []byte) ([]byte, error) {
	img, err := bmp.Decode(bytes.NewReader(bmpBytes))
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	if err := png.Encode(&output, img); err != nil {
		return nil, err
	}

	return output.Bytes(), nil
}

func downscale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width >= height {
		height = height * maxEdge / width
		width = maxEdge
	} else {
		width = width * maxEdge / height
		height = maxEdge
	}

	return transform.Resize(img, width, height, transform.Linear)
}
