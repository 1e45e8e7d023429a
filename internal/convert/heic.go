package convert

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/derslik/derslik/internal/common"
)

// HEICToJPEG converts a HEIC/HEIF payload to JPEG in two steps: an external
// converter produces a PNG, which is then re-encoded as JPEG in-process.
// converter: "heif-convert" | "magick" | "sips"
//
// Failures get the iPhone-specific user message instead of the generic
// conversion one, since HEIC uploads are nearly always iPhone photos.
func HEICToJPEG(ctx context.Context, r Runner, converter string, data []byte) ([]byte, Info, error) {
	tmpDir, err := os.MkdirTemp("", "derslik-heic-*")
	if err != nil {
		return nil, Info{}, common.PhoneConversionError(err)
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "input.heic")
	out := filepath.Join(tmpDir, "output.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, Info{}, common.PhoneConversionError(err)
	}

	var args []string
	switch converter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return nil, Info{}, common.PhoneConversionError(fmt.Errorf("no HEIC converter configured: want heif-convert | magick | sips, got %q", converter))
	}
	if err := r.Run(ctx, converter, args...); err != nil {
		return nil, Info{}, common.PhoneConversionError(err)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, Info{}, common.PhoneConversionError(fmt.Errorf("conversion produced no output: %w", err))
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, Info{}, common.PhoneConversionError(err)
	}
	jpg, info, err := encodeJPEG(img)
	if err != nil {
		return nil, Info{}, common.PhoneConversionError(err)
	}
	return jpg, info, nil
}
