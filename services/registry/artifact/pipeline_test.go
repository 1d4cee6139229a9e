package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// minimalPDF assembles a one-page document with a correct xref table so the
// structural validation in the pipeline accepts it.
func minimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n")

	xref := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	buf.WriteString("trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n")
	fmt.Fprintf(&buf, "%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

type flatRasterizer struct {
	width  int
	height int
}

func (r flatRasterizer) FirstPage(ctx context.Context, pdfPath string) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img, nil
}

func TestFetchDownloadsNamesAndSkipsOnRerun(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(minimalPDF())
	}))
	defer server.Close()

	dir := t.TempDir()
	pipeline := NewPipeline(PipelineOptions{})
	req := Request{
		Token:    "abc123",
		Endpoint: server.URL + "/doc?token=%s",
		Dir:      dir,
		Date:     "17/05/2024",
		Fragment: "1234",
	}

	got, err := pipeline.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, StateNamed, got.State)
	// no text layer in the document, so the sentinel name is used
	require.Equal(t, NoSummary, got.Summary)
	require.Equal(t, filepath.Join(dir, "20240517_1234_sin_resumen.pdf"), got.FinalPath)
	require.FileExists(t, got.FinalPath)
	require.NoFileExists(t, filepath.Join(dir, "20240517_1234_temp.pdf"))
	require.Equal(t, 1, requests)

	// a second run finds the promoted file and never touches the network
	again, err := pipeline.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, got.FinalPath, again.FinalPath)
	require.Equal(t, 1, requests)
}

func TestFetchRejectsHtmlErrorPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the registry answers expired tokens with 200 and an error page
		w.Write([]byte("<html><body>Sesión expirada</body></html>"))
	}))
	defer server.Close()

	dir := t.TempDir()
	pipeline := NewPipeline(PipelineOptions{})

	_, err := pipeline.Fetch(context.Background(), Request{
		Token:    "expired",
		Endpoint: server.URL + "/doc?token=%s",
		Dir:      dir,
		Date:     "17/05/2024",
		Fragment: "1234",
	})
	require.ErrorIs(t, err, ErrDownloadFailed)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Empty(t, entries, "failed download must not leave files behind")
}

func TestFetchReportsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	pipeline := NewPipeline(PipelineOptions{})
	_, err := pipeline.Fetch(context.Background(), Request{
		Token:    "missing",
		Endpoint: server.URL + "/doc?token=%s",
		Dir:      t.TempDir(),
		Date:     "17/05/2024",
		Fragment: "1234",
	})
	require.ErrorIs(t, err, ErrDownloadFailed)
}

func TestFetchWritesPreview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(minimalPDF())
	}))
	defer server.Close()

	dir := t.TempDir()
	pipeline := NewPipeline(PipelineOptions{
		Rasterizer: flatRasterizer{width: 800, height: 1000},
	})

	got, err := pipeline.Fetch(context.Background(), Request{
		Token:    "abc",
		Endpoint: server.URL + "/doc?token=%s",
		Dir:      dir,
		Date:     "17/05/2024",
		Fragment: "55",
	})
	require.NoError(t, err)
	require.Equal(t, StatePreviewed, got.State)
	require.True(t, strings.HasSuffix(got.PreviewPath, "_preview.png"))

	f, err := os.Open(got.PreviewPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 400, img.Bounds().Dx())
	// upper 35% of an 800x1000 page scaled to width 400
	require.Equal(t, 175, img.Bounds().Dy())
}

func TestCropPreviewDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 1000))
	out := CropPreview(src)
	require.Equal(t, 400, out.Bounds().Dx())
	require.Equal(t, 175, out.Bounds().Dy())
}

func TestPromoteKeepPolicy(t *testing.T) {
	dir := t.TempDir()
	temp := filepath.Join(dir, "x_temp.pdf")
	final := filepath.Join(dir, "x_final.pdf")
	require.NoError(t, os.WriteFile(temp, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(final, []byte("old"), 0o644))

	keep := NewPipeline(PipelineOptions{OnConflict: Keep})
	promoted, err := keep.promote(temp, final)
	require.NoError(t, err)
	require.Equal(t, final, promoted)
	require.NoFileExists(t, temp)
	content, err := os.ReadFile(final)
	require.NoError(t, err)
	require.Equal(t, "old", string(content))
}

func TestPromoteOverwritePolicy(t *testing.T) {
	dir := t.TempDir()
	temp := filepath.Join(dir, "x_temp.pdf")
	final := filepath.Join(dir, "x_final.pdf")
	require.NoError(t, os.WriteFile(temp, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(final, []byte("old"), 0o644))

	overwrite := NewPipeline(PipelineOptions{OnConflict: Overwrite})
	promoted, err := overwrite.promote(temp, final)
	require.NoError(t, err)
	content, err := os.ReadFile(promoted)
	require.NoError(t, err)
	require.Equal(t, "new", string(content))
}

func TestCleanTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_temp.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_done.pdf"), []byte("x"), 0o644))

	require.NoError(t, CleanTempFiles(dir))
	require.NoFileExists(t, filepath.Join(dir, "a_temp.pdf"))
	require.FileExists(t, filepath.Join(dir, "a_done.pdf"))
}
