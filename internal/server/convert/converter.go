package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/logging"
)

// Converter produces a PDF rendition of a source document and returns the
// path of the result.
type Converter interface {
	Convert(ctx context.Context, src string, outdir string) (string, error)
}

// Soffice shells out to a LibreOffice-style command line. The command
// template carries {src} and {outdir} placeholders; the converted document
// lands in outdir under the source base name with a .pdf extension.
type Soffice struct {
	command string
	logger  logging.Logger
}

func NewSoffice(command string, logger logging.Logger) *Soffice {
	return &Soffice{command: command, logger: logger.With("module", "converter")}
}

func (c *Soffice) Convert(ctx context.Context, src string, outdir string) (string, error) {
	argv := c.buildArgs(src, outdir)
	if len(argv) == 0 {
		return "", fmt.Errorf("empty convert command: %w", common.ErrConversionFailed)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error(ctx, "conversion command failed", "src", src, "error", err, "output", strings.TrimSpace(string(out)))
		return "", fmt.Errorf("convert %s: %w", filepath.Base(src), common.ErrConversionFailed)
	}

	dst := filepath.Join(outdir, pdfName(src))
	if _, err := os.Stat(dst); err != nil {
		c.logger.Error(ctx, "conversion produced no output", "src", src, "expected", dst)
		return "", fmt.Errorf("convert %s: %w", filepath.Base(src), common.ErrConversionFailed)
	}

	return dst, nil
}

func (c *Soffice) buildArgs(src, outdir string) []string {
	fields := strings.Fields(c.command)
	argv := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, "{src}", src)
		f = strings.ReplaceAll(f, "{outdir}", outdir)
		argv = append(argv, f)
	}
	return argv
}

func pdfName(src string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".pdf"
}
