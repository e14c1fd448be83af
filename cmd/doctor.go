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
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/k1LoW/shotpdf"
	"github.com/k1LoW/shotpdf/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "check the environment of shotpdf",
	Long:  `check the environment of shotpdf.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		bold := color.New(color.Bold)

		allOK := true

		// 1. Check configuration file (optional)
		cmd.Print("🔧 Checking configuration file ... ")
		cfg, err := loadConfig(cmd)
		if err != nil {
			red.Println("✗ CONFIG ERROR")
			cmd.Printf("   Error loading config: %v\n", err)
			cmd.Printf("   Config directory: %s\n", config.ConfigPath())
			return nil
		}
		green.Println("✓ OK")
		cmd.Printf("   Config directory: %s\n", config.ConfigPath())

		// 2. Check screenshot directory
		cmd.Print("📁 Checking screenshot directory ... ")
		d := cfg.ScreenshotDir()
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			red.Println("✗ NOT FOUND")
			cmd.Printf("   Expected at: %s\n", d)
			allOK = false
		} else {
			green.Println("✓ OK")
			cmd.Printf("   Screenshot directory: %s\n", d)
		}

		// 3. Check screenshots
		if allOK {
			cmd.Print("🖼  Checking screenshots ... ")
			s, err := shotpdf.New(d, shotpdf.WithConfig(cfg))
			if err != nil {
				return err
			}
			files, err := s.List()
			switch {
			case err != nil:
				red.Println("✗ LIST ERROR")
				cmd.Printf("   Error listing screenshots: %v\n", err)
				allOK = false
			case len(files) == 0:
				yellow.Println("⚠️ NO PNG FILES")
				cmd.Println("   Run `shotpdf extract` or `shotpdf capture` to add screenshots")
			default:
				broken, mislabeled := checkScreenshots(files)
				switch {
				case len(broken) > 0:
					red.Println("✗ BROKEN FILES")
					for _, b := range broken {
						cmd.Printf("   - %s\n", b)
					}
					allOK = false
				case len(mislabeled) > 0:
					yellow.Println("⚠️ NOT PNG DATA")
					for _, m := range mislabeled {
						cmd.Printf("   - %s\n", m)
					}
					cmd.Printf("   %d screenshots, PDF will be written to %s\n", len(files), s.Output())
				default:
					green.Println("✓ OK")
					cmd.Printf("   %d screenshots, PDF will be written to %s\n", len(files), s.Output())
				}
			}
		}

		// Final message
		cmd.Println()
		if allOK {
			bold.Printf("🎉 ")
			green.Print("All checks passed! You are ready to use shotpdf")
			bold.Println(".")
		} else {
			red.Println("⚠️  Setup is incomplete.")
			cmd.Println("\nPlease fix the issues above to use shotpdf properly.")
		}
		return nil
	},
}

// checkScreenshots returns the files that cannot be decoded and the files whose data is not PNG.
func checkScreenshots(files []string) (broken, mislabeled []string) {
	for _, f := range files {
		i, err := shotpdf.NewImage(f)
		if err != nil {
			broken = append(broken, filepath.Base(f))
			continue
		}
		if i.MIMEType() != shotpdf.MIMETypeImagePNG {
			mislabeled = append(mislabeled, fmt.Sprintf("%s (%s)", i.Name(), i.MIMEType()))
		}
	}
	return broken, mislabeled
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVarP(&dir, "dir", "d", "", "screenshot directory")
}
