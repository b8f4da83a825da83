// Package batch runs the one-shot generators that write every marker of a
// kind to disk.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openclaw/markergen/marker"
	"github.com/openclaw/markergen/output"
	"github.com/openclaw/markergen/qr"
	"github.com/openclaw/markergen/store"
)

// Recorder persists runs and artifacts. *store.ManifestStore implements it.
type Recorder interface {
	StartRun(run *store.Run) error
	FinishRun(id string, runErr error) error
	SaveArtifact(a *store.Artifact) error
}

// Options configures a Generator.
type Options struct {
	TagDir string
	QRDir  string
	Size   int
	Border int
	Family string
	IDs    []int // defaults to marker.IDs()
}

// Generator writes marker images for a fixed set of IDs, one at a time.
type Generator struct {
	opts     Options
	renderer *marker.Renderer
	writer   *output.Writer
	recorder Recorder
	out      io.Writer
	log      *slog.Logger
}

// New returns a Generator. recorder may be nil to skip the manifest; out
// receives the human-readable progress lines.
func New(opts Options, writer *output.Writer, recorder Recorder, out io.Writer, log *slog.Logger) *Generator {
	if len(opts.IDs) == 0 {
		opts.IDs = marker.IDs()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		opts:     opts,
		renderer: marker.NewRenderer(opts.Family, log),
		writer:   writer,
		recorder: recorder,
		out:      out,
		log:      log,
	}
}

// Tags writes tag_{id} for every ID into the tag directory.
func (g *Generator) Tags(ctx context.Context) ([]*output.File, error) {
	fmt.Fprintf(g.out, "Generating AprilTag markers (%s family)...\n", g.renderer.Family())

	params := fmt.Sprintf("size=%d border=%d family=%s format=%s",
		g.opts.Size, g.opts.Border, g.renderer.Family(), g.writer.Format())
	files, err := g.run(ctx, store.KindTag, params, func(id int) (*output.File, string, error) {
		img := g.renderer.Render(id, g.opts.Size, g.opts.Border)
		f, err := g.writer.Write(g.opts.TagDir, fmt.Sprintf("tag_%d", id), img)
		if err != nil {
			return nil, "", err
		}
		fmt.Fprintf(g.out, "Generated: %s\n", f.Path)
		return f, "", nil
	})
	if err != nil {
		return files, err
	}

	fmt.Fprintln(g.out, "\nAll markers generated successfully!")
	fmt.Fprintf(g.out, "Markers saved to: %s/\n", g.opts.TagDir)
	fmt.Fprintln(g.out, "\nNote: These are simplified AprilTag-style markers.")
	fmt.Fprintln(g.out, "For production use, consider using the official AprilTag generator.")
	return files, nil
}

// QR writes qr_{id} for every ID into the QR directory.
func (g *Generator) QR(ctx context.Context) ([]*output.File, error) {
	fmt.Fprintln(g.out, "Generating QR code markers...")

	params := fmt.Sprintf("level=H module=%d quiet_zone=%d format=%s",
		qr.ModuleSize, qr.QuietZone, g.writer.Format())
	files, err := g.run(ctx, store.KindQR, params, func(id int) (*output.File, string, error) {
		payload := qr.Payload(id)
		img, err := qr.Encode(payload)
		if err != nil {
			return nil, "", err
		}
		f, err := g.writer.Write(g.opts.QRDir, fmt.Sprintf("qr_%d", id), img)
		if err != nil {
			return nil, "", err
		}
		fmt.Fprintf(g.out, "Generated: %s (Data: %s)\n", f.Path, payload)
		return f, payload, nil
	})
	if err != nil {
		return files, err
	}

	fmt.Fprintln(g.out, "\nAll QR markers generated successfully!")
	fmt.Fprintf(g.out, "Markers saved to: %s/\n", g.opts.QRDir)
	return files, nil
}

type generateFunc func(id int) (file *output.File, payload string, err error)

// run calls gen for each ID in order, recording the run and its artifacts.
// The first error stops the run.
func (g *Generator) run(ctx context.Context, kind, params string, gen generateFunc) (files []*output.File, err error) {
	runID := uuid.NewString()
	log := g.log.With("run_id", runID, "kind", kind)

	if g.recorder != nil {
		if err := g.recorder.StartRun(&store.Run{ID: runID, Kind: kind, Params: params}); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		defer func() {
			if ferr := g.recorder.FinishRun(runID, err); ferr != nil {
				log.Error("failed to finish run in manifest", "error", ferr)
			}
		}()
	}

	log.Debug("batch started", "ids", g.opts.IDs, "params", params)

	for _, id := range g.opts.IDs {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		f, payload, err := gen(id)
		if err != nil {
			return files, fmt.Errorf("generate %s %d: %w", kind, id, err)
		}
		files = append(files, f)
		log.Debug("marker written", "id", id, "path", f.Path, "bytes", f.Bytes)

		if g.recorder != nil {
			if err := g.recorder.SaveArtifact(artifactOf(runID, kind, id, f, payload)); err != nil {
				return files, fmt.Errorf("record artifact: %w", err)
			}
		}
	}

	log.Info("batch finished", "count", len(files))
	return files, nil
}

func artifactOf(runID, kind string, id int, f *output.File, payload string) *store.Artifact {
	return &store.Artifact{
		RunID:    runID,
		Kind:     kind,
		MarkerID: id,
		Path:     f.Path,
		Format:   string(f.Format),
		Width:    f.Width,
		Height:   f.Height,
		Bytes:    f.Bytes,
		SHA256:   f.SHA256,
		Payload:  payload,
	}
}
