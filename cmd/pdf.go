/*
Copyright © 2025 Ken'ichiro Oyama <k1lowxb@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/k1LoW/shotpdf"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	out    string
	page   string
	dedupe bool
	watch  bool
	open   bool
)

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "assemble screenshots into a multi-page PDF",
	Long: `assemble screenshots into a multi-page PDF.

All PNG files in the screenshot directory are written as pages in file name order.
Transparent areas are flattened onto a white background.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, stop, err := newLogger()
		if err != nil {
			return err
		}
		defer stop()

		var opts []shotpdf.Option
		if cmd.Flags().Changed("out") {
			opts = append(opts, shotpdf.WithOutput(out))
		}
		if cmd.Flags().Changed("dedupe") {
			opts = append(opts, shotpdf.WithDedupe(dedupe))
		}
		s, err := newScreenshots(cfg, logger, opts...)
		if err != nil {
			return err
		}

		build := func(ctx context.Context) error {
			files, err := s.List()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No PNG files found!")
				return nil
			}
			printListing(cmd.OutOrStdout(), files)
			pages, err := pageToPages(page, len(files))
			if err != nil {
				return err
			}
			s.SetPages(pages)
			res, err := s.AssembleFiles(ctx, files)
			if err != nil {
				if errors.Is(err, shotpdf.ErrNoPNGFiles) {
					fmt.Fprintln(cmd.OutOrStdout(), "No PNG files found!")
					return nil
				}
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		}

		if err := build(ctx); err != nil {
			return err
		}
		if open {
			if err := browser.OpenFile(s.Output()); err != nil {
				return err
			}
		}
		if watch {
			return s.Watch(ctx, build)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pdfCmd)
	pdfCmd.Flags().StringVarP(&dir, "dir", "d", "", "screenshot directory")
	pdfCmd.Flags().StringVarP(&out, "out", "o", "", "output PDF file (default: <dir>/screenshots.pdf)")
	pdfCmd.Flags().StringVarP(&page, "page", "p", "", "pages to assemble (e.g. 1,3,5-)")
	pdfCmd.Flags().BoolVarP(&dedupe, "dedupe", "", false, "drop pages equivalent to the previous page")
	pdfCmd.Flags().BoolVarP(&watch, "watch", "w", false, "watch the screenshot directory and rebuild on changes")
	pdfCmd.Flags().BoolVarP(&open, "open", "", false, "open the PDF after it is created")
}

func printListing(w io.Writer, files []string) {
	fmt.Fprintf(w, "Found %d screenshots:\n", len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  - %s\n", filepath.Base(f))
	}
}

func printResult(w io.Writer, res *shotpdf.Result) {
	green := color.New(color.FgGreen)
	fmt.Fprintln(w)
	_, _ = green.Fprintf(w, "✅ PDF created: %s\n", res.Output)
	fmt.Fprintf(w, "   Total pages: %d\n", res.PageCount())
}
