package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/convert"
	"github.com/dkravets/irisvault/internal/server/vault"
)

// Kind says how the browser should receive a prepared file.
type Kind int

const (
	// ViewPdf streams a PDF inline.
	ViewPdf Kind = iota
	// ViewImage displays an image inline.
	ViewImage
)

// View is the outcome of preparing a file for inline display.
type View struct {
	Kind Kind
	// StreamName is the name the streaming route should serve. For direct
	// PDFs and images it is the stored file itself; for converted documents
	// it is an ephemeral artifact in the scratch directory.
	StreamName string
	// Scratch marks StreamName as a scratch artifact rather than a vault
	// object.
	Scratch bool
}

// Converter is what the pipeline needs from the conversion subsystem.
type Converter interface {
	Convert(ctx context.Context, src string, outdir string) (string, error)
}

// Pipeline prepares stored files for inline viewing. PDFs and images are
// handed straight to the streaming routes; office documents are converted
// to an ephemeral PDF first.
type Pipeline struct {
	vault   *vault.Vault
	conv    Converter
	scratch *convert.Scratch
	logger  logging.Logger
}

func NewPipeline(v *vault.Vault, conv Converter, scratch *convert.Scratch, logger logging.Logger) *Pipeline {
	return &Pipeline{
		vault:   v,
		conv:    conv,
		scratch: scratch,
		logger:  logger.With("module", "render"),
	}
}

// Prepare decides how the named file should be displayed and performs any
// conversion needed. Unsupported formats are rejected before any vault or
// scratch activity happens.
func (p *Pipeline) Prepare(ctx context.Context, owner, filename string) (View, error) {
	switch Classify(filename) {
	case DirectStreamPdf:
		return View{Kind: ViewPdf, StreamName: filename}, nil
	case ImageDisplay:
		return View{Kind: ViewImage, StreamName: filename}, nil
	case ConvertThenStream:
		return p.convertToPdf(ctx, owner, filename)
	default:
		return View{}, fmt.Errorf("view %s: %w", filename, common.ErrUnsupportedFormat)
	}
}

// convertToPdf copies the stored document into the scratch directory under
// a fresh uuid name, runs the converter, and points the view at the
// resulting artifact. Each request converts anew; the scratch janitor
// evicts the leftovers.
func (p *Pipeline) convertToPdf(ctx context.Context, owner, filename string) (View, error) {
	rc, err := p.vault.Open(ctx, owner, filename)
	if err != nil {
		return View{}, err
	}
	defer rc.Close()

	srcName := uuid.New().String() + filepath.Ext(filename)
	src, err := p.scratch.Write(srcName, rc)
	if err != nil {
		p.logger.Error(ctx, "staging document failed", "owner", owner, "name", filename, "error", err)
		return View{}, fmt.Errorf("stage %s: %w", filename, common.ErrConversionFailed)
	}

	dst, err := p.conv.Convert(ctx, src, p.scratch.Dir())
	if err != nil {
		return View{}, err
	}

	p.logger.Info(ctx, "document converted", "owner", owner, "name", filename, "artifact", filepath.Base(dst))
	return View{Kind: ViewPdf, StreamName: filepath.Base(dst), Scratch: true}, nil
}
