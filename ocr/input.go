package ocr

import (
	"fmt"
	"image"
	"strconv"

	"github.com/wudi/annokit/pagesource"
)

// InputOption mutates an OCR input before submission.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// WithPageSegmentation sets Tesseract's page segmentation mode. Scanned book
// pages recognize best as a single uniform block (mode 6); the default auto
// mode suits mixed layouts.
func WithPageSegmentation(mode int) InputOption {
	return setVariable("tessedit_pageseg_mode", strconv.Itoa(mode))
}

// WithCharWhitelist restricts recognition to the given characters, useful
// when a clip region is known to hold only digits or formula symbols.
func WithCharWhitelist(chars string) InputOption {
	return setVariable("tessedit_char_whitelist", chars)
}

func setVariable(key, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[key] = value
	}
}

// InputFromImage converts a rendered page raster into an OCR input using PNG
// encoding. The generated ID is stable per page to simplify correlation with
// downstream results.
func InputFromImage(pageNumber int, img image.Image, opts ...InputOption) (Input, error) {
	data, err := pagesource.EncodePNG(img)
	if err != nil {
		return Input{}, fmt.Errorf("encode page raster: %w", err)
	}
	in := Input{
		ID:        fmt.Sprintf("page-%d", pageNumber),
		Image:     data,
		Format:    ImageFormatPNG,
		PageIndex: pageNumber,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
