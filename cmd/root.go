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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/shotpdf"
	"github.com/k1LoW/shotpdf/config"
	"github.com/k1LoW/shotpdf/logger/dot"
	"github.com/k1LoW/shotpdf/version"
	"github.com/k1LoW/tail"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var (
	profile string
	dir     string
)

// tb holds the latest logs written to error.json on failure.
var tb = tail.New(1000)

var rootCmd = &cobra.Command{
	Use:          "shotpdf",
	Short:        "shotpdf is a tool for collecting screenshots and assembling them into a PDF",
	Long:         `shotpdf is a tool for collecting screenshots and assembling them into a PDF.`,
	SilenceUsage: true,
	Version:      fmt.Sprintf("%s (rev:%s)", version.Version, version.Revision),
}

type errorData struct {
	LatestLogs  []any     `json:"latest_logs"`
	StackTraces any       `json:"stack_traces"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
	Revision    string    `json:"revision"`
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Write stack trace log to state directory
		var latestLogs []any
		for _, line := range tb.Lines() {
			var m map[string]any
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				latestLogs = append(latestLogs, line)
			} else {
				latestLogs = append(latestLogs, m)
			}
		}
		d := &errorData{
			LatestLogs:  latestLogs,
			StackTraces: errors.StackTraces(err),
			CreatedAt:   time.Now(),
			Version:     version.Version,
			Revision:    version.Revision,
		}
		b, err := json.Marshal(d)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			stateDir := config.StateHomePath()
			dumpPath := filepath.Join(stateDir, "error.json")
			if err := os.MkdirAll(stateDir, 0o700); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "failed to create state directory %s: %v\n", stateDir, err)
			} else if err := os.WriteFile(dumpPath, b, 0o600); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "failed to write error.json to %s: %v\n", dumpPath, err)
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "", "", "profile name")
}

// newLogger returns a logger that prints progress to the console and keeps JSON logs for error reports.
func newLogger() (*slog.Logger, func(), error) {
	h, err := dot.New(slog.NewTextHandler(os.Stdout, nil))
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slogmulti.Fanout(
		h,
		slog.NewJSONHandler(tb, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))
	return logger, h.Stop, nil
}

// loadConfig loads the configuration of the current profile and applies the --dir flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// allow only alphanumeric characters, underscores, and hyphens
	if profile != "" && strings.Trim(profile, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-") != "" {
		return nil, fmt.Errorf("invalid profile name: %s, only alphanumeric characters, underscores, and hyphens are allowed", profile)
	}
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("dir"); f != nil && f.Changed {
		cfg.Dir = dir
	}
	return cfg, nil
}

// newScreenshots returns Screenshots configured from the config file, with opts taking precedence.
func newScreenshots(cfg *config.Config, logger *slog.Logger, opts ...shotpdf.Option) (*shotpdf.Screenshots, error) {
	o := []shotpdf.Option{
		shotpdf.WithConfig(cfg),
		shotpdf.WithLogger(logger),
	}
	o = append(o, opts...)
	return shotpdf.New(cfg.ScreenshotDir(), o...)
}
