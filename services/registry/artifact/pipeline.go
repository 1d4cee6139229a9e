package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/registry/artifact")

// ErrDownloadFailed indicates the registry did not hand back a retrievable
// document for the token. The registry answers 200 with an HTML error page
// for expired tokens, so validation failures map here too.
var ErrDownloadFailed = errors.New("document download failed")

// CollisionPolicy decides what happens when the final name is already taken
// by a file with different content.
type CollisionPolicy int

const (
	// Overwrite replaces the existing file. Re-fetching the same token
	// yields the same content, so replacing is safe.
	Overwrite CollisionPolicy = iota
	// Keep leaves the existing file alone and discards the new download.
	Keep
)

// Request identifies one document to retrieve.
type Request struct {
	// opaque reference token scraped from the movement row
	Token string
	// retrieval endpoint template with one %s slot for the escaped token
	Endpoint string
	// directory artifacts are written into
	Dir string
	// movement date as rendered by the registry, DD/MM/YYYY
	Date string
	// case identifier fragment used in the file name
	Fragment string
	// document kind, empty for ordinary resolutions
	Kind string
}

type Pipeline struct {
	http       *resty.Client
	rasterizer Rasterizer
	onConflict CollisionPolicy
}

type PipelineOptions struct {
	Http       *resty.Client
	Rasterizer Rasterizer
	OnConflict CollisionPolicy
}

func NewPipeline(options PipelineOptions) *Pipeline {
	client := options.Http
	if client == nil {
		client = resty.New()
	}
	return &Pipeline{
		http:       client,
		rasterizer: options.Rasterizer,
		onConflict: options.OnConflict,
	}
}

// Fetch runs one document through download, validation, naming and preview.
// A stem that already has a promoted file in the directory short-circuits
// before any network traffic, which is what makes re-runs over the same day
// cheap. Naming and preview failures degrade, they never fail the fetch.
func (p *Pipeline) Fetch(ctx context.Context, req Request) (Artifact, error) {
	ctx, span := tracer.Start(ctx, "artifact.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("artifact.kind", req.Kind))

	stem := Stem(req.Date, req.Fragment, req.Kind)

	artifact := Artifact{
		Token: req.Token,
		URL:   fmt.Sprintf(req.Endpoint, url.QueryEscape(req.Token)),
		State: StatePending,
	}

	if existing, ok := existingForStem(req.Dir, stem); ok {
		slog.Debug("artifact already present, skipping fetch",
			"stem", stem, "path", existing)
		artifact.FinalPath = existing
		artifact.State = StateNamed
		if preview := previewPath(existing); fileExists(preview) {
			artifact.PreviewPath = preview
			artifact.State = StatePreviewed
		}
		return artifact, nil
	}

	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return artifact, err
	}

	artifact.TempPath = tempPath(req.Dir, stem)
	if err := p.download(ctx, artifact.URL, artifact.TempPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		return artifact, err
	}
	artifact.State = StateDownloaded

	artifact.Summary = ExtractSummary(artifact.TempPath)

	final := finalPath(req.Dir, stem, artifact.Summary)
	promoted, err := p.promote(artifact.TempPath, final)
	if err != nil {
		// the download itself succeeded; leave the temp file in place so
		// the content is not lost
		slog.Warn("could not promote artifact to final name",
			"temp", artifact.TempPath, "final", final, "err", err)
		span.RecordError(err)
		return artifact, nil
	}
	artifact.TempPath = ""
	artifact.FinalPath = promoted
	artifact.State = StateNamed

	preview := previewPath(promoted)
	if fileExists(preview) {
		artifact.PreviewPath = preview
		artifact.State = StatePreviewed
		return artifact, nil
	}
	if p.rasterizer == nil {
		return artifact, nil
	}
	if err := writePreview(ctx, p.rasterizer, promoted, preview); err != nil {
		slog.Warn("preview generation failed",
			"path", promoted, "err", err)
		span.RecordError(err)
		return artifact, nil
	}
	artifact.PreviewPath = preview
	artifact.State = StatePreviewed
	return artifact, nil
}

func (p *Pipeline) download(ctx context.Context, docURL, dest string) error {
	res, err := p.http.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(docURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if res.IsError() {
		os.Remove(dest)
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, res.StatusCode())
	}

	// the registry serves HTML error pages with status 200, so a structural
	// check is the only reliable signal the bytes are actually a document
	if err := api.ValidateFile(dest, nil); err != nil {
		os.Remove(dest)
		return fmt.Errorf("%w: not a valid document: %v", ErrDownloadFailed, err)
	}
	return nil
}

func (p *Pipeline) promote(temp, final string) (string, error) {
	if fileExists(final) && p.onConflict == Keep {
		if err := os.Remove(temp); err != nil {
			return "", err
		}
		return final, nil
	}
	if err := os.Rename(temp, final); err != nil {
		return "", err
	}
	return final, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CleanTempFiles removes leftover temp downloads from interrupted runs.
func CleanTempFiles(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*_temp.pdf"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return err
		}
	}
	return nil
}
