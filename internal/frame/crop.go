package frame

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image data
type CropResult struct {
	Region      Region `json:"region"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts r from the frame mask, optionally scaled, as base64 PNG.
// Scale factors other than 1 resample with Lanczos.
func (f *Frame) Crop(r Region, scale float64) (*CropResult, error) {
	if _, err := f.Region(r); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be > 0, got %g", scale)
	}

	var cropped image.Image = imaging.Crop(f.gray, r.Rect())
	if scale != 1.0 {
		newWidth := max(1, int(float64(r.Width())*scale))
		newHeight := max(1, int(float64(r.Height())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Region:      r,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
