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
	"fmt"
	"time"

	"github.com/k1LoW/shotpdf"
	"github.com/spf13/cobra"
)

var (
	userAgent string
	timeout   time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture [URL] [OUTPUT_NAME]",
	Short: "capture a screenshot of a web page",
	Long: `capture a screenshot of a web page.

The page is opened with headless Chrome in a mobile sized viewport and saved as OUTPUT_NAME.png
in the screenshot directory.`,
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
		var opts []shotpdf.Option
		if cmd.Flags().Changed("user-agent") {
			opts = append(opts, shotpdf.WithUserAgent(userAgent))
		}
		if cmd.Flags().Changed("timeout") {
			opts = append(opts, shotpdf.WithCaptureTimeout(timeout))
		}
		s, err := newScreenshots(cfg, logger, opts...)
		if err != nil {
			return err
		}
		p, err := s.Capture(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&dir, "dir", "d", "", "screenshot directory")
	captureCmd.Flags().StringVarP(&userAgent, "user-agent", "", "", "User-Agent of the browser")
	captureCmd.Flags().DurationVarP(&timeout, "timeout", "", 30*time.Second, "time limit of a single capture attempt")
}
