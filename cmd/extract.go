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
	"errors"
	"fmt"

	"github.com/k1LoW/shotpdf"
	"github.com/spf13/cobra"
)

var verify bool

var extractCmd = &cobra.Command{
	Use:   "extract [JSON_FILE] [OUTPUT_NAME]",
	Short: "extract a base64 encoded screenshot from a JSON file",
	Long: `extract a base64 encoded screenshot from a JSON file.

JSON_FILE must be an array of objects (a file path or an http(s) URL). The first object whose "text"
contains a data URI image is decoded and saved as OUTPUT_NAME.png in the screenshot directory.`,
	Args: cobra.ExactArgs(2),
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
		s, err := newScreenshots(cfg, logger, shotpdf.WithVerify(verify))
		if err != nil {
			return err
		}
		p, err := s.Extract(ctx, args[0], args[1])
		if err != nil {
			if errors.Is(err, shotpdf.ErrNoImage) {
				fmt.Fprintln(cmd.OutOrStdout(), "No image found in JSON")
				return nil
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&dir, "dir", "d", "", "screenshot directory")
	extractCmd.Flags().BoolVarP(&verify, "verify", "", false, "verify that the payload is a valid image")
}
