package shotpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/k1LoW/errors"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// shotpdf does not use pdfcpu's user configuration
	api.DisableConfigDir()
}

// writePDF writes pages as a multi-page PDF to w.
// Every page has the size of its image at the given resolution (px * 72 / dpi points).
func writePDF(w io.Writer, pages []image.Image, dpi float64) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if len(pages) == 0 {
		return fmt.Errorf("no pages to write")
	}
	if dpi <= 0 {
		return fmt.Errorf("invalid resolution: %v", dpi)
	}
	// pdfcpu applies one import configuration to all images of a call,
	// so pages are appended one by one to get a page size per image.
	var doc []byte
	for idx, p := range pages {
		b := p.Bounds()
		imp, err := api.Import(fmt.Sprintf("pos:c, sc:1, dim:%s %s", points(b.Dx(), dpi), points(b.Dy(), dpi)), types.POINTS)
		if err != nil {
			return fmt.Errorf("failed to create import configuration for page %d: %w", idx+1, err)
		}
		img := new(bytes.Buffer)
		if err := png.Encode(img, p); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", idx+1, err)
		}
		var rs io.ReadSeeker
		if doc != nil {
			rs = bytes.NewReader(doc)
		}
		out := new(bytes.Buffer)
		if err := api.ImportImages(rs, out, []io.Reader{img}, imp, model.NewDefaultConfiguration()); err != nil {
			return fmt.Errorf("failed to write page %d: %w", idx+1, err)
		}
		doc = out.Bytes()
	}
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// points returns the length of px pixels at dpi in PDF points.
func points(px int, dpi float64) string {
	return strconv.FormatFloat(float64(px)*72/dpi, 'f', -1, 64)
}

// writePDFFile writes pages to p, replacing any existing file.
// The PDF is written to a temporary file next to p and renamed into place.
func writePDFFile(p string, pages []image.Image, dpi float64) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s-%s.tmp", filepath.Base(p), uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err := writePDF(f, pages, dpi); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace %s: %w", p, err)
	}
	return nil
}

// PageCount returns the number of pages of the PDF file at p.
func PageCount(p string) (_ int, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	n, err := api.PageCountFile(p)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", p, err)
	}
	return n, nil
}
