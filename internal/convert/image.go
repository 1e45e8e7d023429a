// Package convert normalizes uploaded images to JPEG before OCR. The vision
// model accepts JPEG/PNG/WEBP but uploads arrive as anything a phone or
// scanner produces, including HEIC and TIFF.
package convert

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/common"
)

const jpegQuality = 90

// Info describes a normalized image, recorded in processing metadata.
type Info struct {
	Width  int
	Height int
	Bytes  int
}

// NeedsConversion reports whether an image with the given extension must be
// normalized to JPEG before the vision call. JPEG and PNG pass through.
func NeedsConversion(ext string) bool {
	switch constants.NormalizeExt(ext) {
	case "heic", "heif", "tiff", "tif", "webp":
		return true
	}
	return false
}

// ToJPEG decodes a TIFF or WEBP image and re-encodes it as JPEG. HEIC is
// handled separately because the stdlib and x/image cannot decode it.
func ToJPEG(ext string, data []byte) ([]byte, Info, error) {
	var (
		img image.Image
		err error
	)
	switch constants.NormalizeExt(ext) {
	case "tiff", "tif":
		img, err = tiff.Decode(bytes.NewReader(data))
	case "webp":
		img, err = webp.Decode(bytes.NewReader(data))
	case "png":
		img, err = png.Decode(bytes.NewReader(data))
	case "jpg", "jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, Info{}, common.ImageConversionError(nil)
	}
	if err != nil {
		return nil, Info{}, common.ImageConversionError(err)
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, Info, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, Info{}, common.ImageConversionError(err)
	}
	bounds := img.Bounds()
	return buf.Bytes(), Info{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Bytes:  buf.Len(),
	}, nil
}
