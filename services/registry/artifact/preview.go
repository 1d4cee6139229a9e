package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"

	"golang.org/x/image/draw"
)

// fraction of the first page kept for the preview; the upper portion
// covers the court header and the resolution caption
const previewCropRatio = 0.35

const previewWidth = 400

// Rasterizer renders the first page of a PDF to an image. The production
// implementation shells out to poppler; tests substitute an in-memory one.
type Rasterizer interface {
	FirstPage(ctx context.Context, pdfPath string) (image.Image, error)
}

// PopplerRasterizer renders through the pdftoppm binary.
type PopplerRasterizer struct {
	// path to pdftoppm, defaults to resolving it from PATH
	Binary string
}

func (r PopplerRasterizer) FirstPage(ctx context.Context, pdfPath string) (image.Image, error) {
	binary := r.Binary
	if binary == "" {
		binary = "pdftoppm"
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-png", "-f", "1", "-l", "1", "-singlefile", pdfPath)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

// CropPreview keeps the upper portion of the rendered page and scales it to
// the fixed preview width, preserving the crop's aspect ratio.
func CropPreview(img image.Image) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	cropHeight := int(float64(h) * previewCropRatio)
	if cropHeight < 1 {
		cropHeight = 1
	}

	newHeight := int(float64(previewWidth) * float64(cropHeight) / float64(w))
	if newHeight < 1 {
		newHeight = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, previewWidth, newHeight))
	draw.CatmullRom.Scale(
		out, out.Bounds(),
		img, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+w, bounds.Min.Y+cropHeight),
		draw.Over, nil,
	)
	return out
}

func writePreview(ctx context.Context, rasterizer Rasterizer, pdfPath, outPath string) error {
	img, err := rasterizer.FirstPage(ctx, pdfPath)
	if err != nil {
		return err
	}

	preview := CropPreview(img)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, preview)
}
