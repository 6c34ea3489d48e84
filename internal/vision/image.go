package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for uploaded screenshots

	"golang.org/x/image/draw"
)

var ErrImageTooLarge = errors.New("image file is too large")

const (
	jpegQuality  = 80
	maxDimension = 1600
)

// PrepareImage normalizes an uploaded receipt image before it goes to the
// model: anything decodable is downscaled so its longest side is at most
// maxDimension, then re-encoded as JPEG. Undecodable uploads pass through
// untouched. maxBytes bounds what we will send; uploads more than three
// times that are rejected before any decoding work, and anything still over
// the limit after preparation is rejected too.
func PrepareImage(data []byte, mimeType string, maxBytes int64) ([]byte, string, error) {
	if int64(len(data)) > maxBytes*3 {
		return nil, "", fmt.Errorf("%w: upload a smaller receipt image", ErrImageTooLarge)
	}

	prepared, preparedMime := data, mimeType
	if preparedMime == "" {
		preparedMime = "image/jpeg"
	}

	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		img = downscale(img, maxDimension)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err == nil {
			prepared = buf.Bytes()
			preparedMime = "image/jpeg"
		}
	}

	if int64(len(prepared)) > maxBytes {
		return nil, "", fmt.Errorf("%w: crop or reduce resolution and try again", ErrImageTooLarge)
	}

	return prepared, preparedMime, nil
}

// downscale bounds the image's longest side to maxSide, preserving aspect
// ratio. Images already within bounds are returned as-is.
func downscale(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxSide {
		return img
	}

	scale := float64(maxSide) / float64(longest)
	dstWidth := int(float64(width) * scale)
	dstHeight := int(float64(height) * scale)
	if dstWidth < 1 {
		dstWidth = 1
	}
	if dstHeight < 1 {
		dstHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
