package shotpdf

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/k1LoW/errors"
	"golang.org/x/sync/errgroup"
)

const maxWorkers = 8

// Result is the outcome of Assemble.
type Result struct {
	// Output is the path of the written PDF.
	Output string
	// Files are all PNG files found in the screenshot directory.
	Files []string
	// Pages are the PNG files written as pages, in page order.
	Pages []string
}

func (r *Result) PageCount() int {
	if r == nil {
		return 0
	}
	return len(r.Pages)
}

// List returns the paths of the PNG files in the screenshot directory, sorted by file name.
func (s *Screenshots) List() (_ []string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("failed to stat directory %s: %w", s.dir, err)
	}
	files, err := filepath.Glob(filepath.Join(s.dir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list PNG files in %s: %w", s.dir, err)
	}
	slices.SortFunc(files, func(a, b string) int {
		return strings.Compare(filepath.Base(a), filepath.Base(b))
	})
	return files, nil
}

// Assemble writes the PNG files of the screenshot directory to the output PDF, one page per file.
// Transparent images are flattened onto a white background.
func (s *Screenshots) Assemble(ctx context.Context) (_ *Result, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	return s.AssembleFiles(ctx, files)
}

// AssembleFiles is like Assemble but uses files, a listing returned by List, instead of listing the directory again.
// Page numbers set with WithPages or SetPages refer to files.
func (s *Screenshots) AssembleFiles(ctx context.Context, files []string) (_ *Result, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if len(files) == 0 {
		s.logger.Info("no PNG files found", slog.String("dir", s.dir))
		return nil, ErrNoPNGFiles
	}
	s.logger.Info("found screenshots", slog.String("dir", s.dir), slog.Int("count", len(files)))

	selected, err := selectPages(files, s.pages)
	if err != nil {
		return nil, err
	}
	sk, err := newSkipper(s.skip)
	if err != nil {
		return nil, err
	}

	images, err := s.loadImages(ctx, selected)
	if err != nil {
		return nil, err
	}

	var (
		pages []image.Image
		names []string
		prev  *Image
	)
	for idx, i := range images {
		w, h, err := i.Size()
		if err != nil {
			return nil, fmt.Errorf("failed to read size of %s: %w", i.Name(), err)
		}
		cond, skip, err := sk.skip(pageVars{name: i.Name(), index: idx + 1, width: w, height: h})
		if err != nil {
			return nil, err
		}
		if skip {
			s.logger.Info("skipped page", slog.String("name", i.Name()), slog.String("condition", cond))
			continue
		}
		if s.dedupe && prev.Equivalent(i) {
			s.logger.Info("deduplicated page", slog.String("name", i.Name()), slog.String("previous", prev.Name()))
			continue
		}
		flat, err := i.Flatten()
		if err != nil {
			return nil, fmt.Errorf("failed to flatten %s: %w", i.Name(), err)
		}
		pages = append(pages, flat)
		names = append(names, i.Path())
		prev = i
		s.logger.Info("normalized page", slog.String("name", i.Name()), slog.Int("page", len(pages)))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("all %d screenshots were skipped", len(selected))
	}

	if err := writePDFFile(s.output, pages, s.resolution); err != nil {
		return nil, err
	}
	PurgeImageCache(files)
	s.logger.Info("assemble completed", slog.String("output", s.output), slog.Int("pages", len(pages)))
	return &Result{
		Output: s.output,
		Files:  files,
		Pages:  names,
	}, nil
}

// loadImages loads and flattens files in parallel. The order of files is kept.
func (s *Screenshots) loadImages(ctx context.Context, files []string) ([]*Image, error) {
	// each file is loaded by a single worker, even if it is selected more than once
	uniq := slices.Compact(slices.Sorted(slices.Values(files)))
	loaded := make([]*Image, len(uniq))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(min(maxWorkers, len(uniq)))
	for idx, f := range uniq {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			i, err := NewImage(f)
			if err != nil {
				return err
			}
			if _, err := i.Flatten(); err != nil {
				return fmt.Errorf("failed to flatten %s: %w", f, err)
			}
			loaded[idx] = i
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	images := make([]*Image, 0, len(files))
	for _, f := range files {
		idx, _ := slices.BinarySearch(uniq, f)
		images = append(images, loaded[idx])
	}
	return images, nil
}

// selectPages returns the files at the given 1-based page numbers. All files are returned if pages is empty.
func selectPages(files []string, pages []int) ([]string, error) {
	if len(pages) == 0 {
		return files, nil
	}
	selected := make([]string, 0, len(pages))
	for _, p := range pages {
		if p < 1 || p > len(files) {
			return nil, fmt.Errorf("page number out of range: %d (total pages: %d)", p, len(files))
		}
		selected = append(selected, files[p-1])
	}
	return selected, nil
}
