// Package ocr turns receipt images into text for the extraction engine.
package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Receipt images are scaled into this range before recognition.
const (
	minDimension = 300
	maxDimension = 3000
)

// PreprocessedMIME is the MIME type Preprocess encodes to.
const PreprocessedMIME = "image/png"

// Preprocess prepares a receipt photo for recognition: orientation fixed from
// EXIF, grayscale, contrast raised, sharpened and scaled so neither side is
// below minDimension or above maxDimension. The result is PNG encoded.
func Preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = fitDimensions(img)

	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 40)
	gray = imaging.Sharpen(gray, 2.5)
	gray = imaging.AdjustGamma(gray, 1.1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode processed image: %w", err)
	}
	return buf.Bytes(), nil
}

func fitDimensions(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch {
	case width > maxDimension || height > maxDimension:
		if width > height {
			return imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
		}
		return imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
	case width < minDimension || height < minDimension:
		if width < height {
			return imaging.Resize(img, minDimension, 0, imaging.CatmullRom)
		}
		return imaging.Resize(img, 0, minDimension, imaging.CatmullRom)
	default:
		return img
	}
}
