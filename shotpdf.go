package shotpdf

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/shotpdf/config"
)

const defaultDebounce = 500 * time.Millisecond

// Screenshots is a directory of screenshots that are extracted, captured and assembled into a PDF.
type Screenshots struct {
	dir        string
	output     string
	resolution float64
	skip       []string
	dedupe     bool
	pages      []int
	verify     bool
	userAgent  string
	debounce   time.Duration
	timeout    time.Duration
	client     *http.Client
	logger     *slog.Logger
}

type Option func(*Screenshots) error

// WithOutput sets the path of the PDF file to create.
func WithOutput(p string) Option {
	return func(s *Screenshots) error {
		s.output = p
		return nil
	}
}

// WithResolution sets the resolution (DPI) of the PDF pages.
func WithResolution(dpi float64) Option {
	return func(s *Screenshots) error {
		if dpi <= 0 {
			return fmt.Errorf("invalid resolution: %v", dpi)
		}
		s.resolution = dpi
		return nil
	}
}

// WithSkip sets CEL conditions. A page is skipped if any condition evaluates to true.
func WithSkip(conds []string) Option {
	return func(s *Screenshots) error {
		s.skip = conds
		return nil
	}
}

// WithDedupe drops pages that are equivalent to the previous page.
func WithDedupe(enable bool) Option {
	return func(s *Screenshots) error {
		s.dedupe = enable
		return nil
	}
}

// WithPages limits assembling to the given 1-based page numbers of the listing.
func WithPages(pages []int) Option {
	return func(s *Screenshots) error {
		s.pages = pages
		return nil
	}
}

// WithVerify makes Extract reject payloads that are not decodable images.
func WithVerify(enable bool) Option {
	return func(s *Screenshots) error {
		s.verify = enable
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(s *Screenshots) error {
		s.userAgent = ua
		return nil
	}
}

// WithDebounce sets the quiet period Watch waits before rebuilding.
func WithDebounce(d time.Duration) Option {
	return func(s *Screenshots) error {
		s.debounce = d
		return nil
	}
}

// WithCaptureTimeout sets the time limit of a single capture attempt.
func WithCaptureTimeout(d time.Duration) Option {
	return func(s *Screenshots) error {
		if d <= 0 {
			return fmt.Errorf("invalid capture timeout: %v", d)
		}
		s.timeout = d
		return nil
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Screenshots) error {
		s.client = c
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Screenshots) error {
		s.logger = logger
		return nil
	}
}

// WithConfig applies the values of the configuration file.
// Options given after WithConfig take precedence.
func WithConfig(cfg *config.Config) Option {
	return func(s *Screenshots) error {
		if cfg == nil {
			return nil
		}
		if cfg.Output != "" {
			s.output = cfg.Output
		}
		s.resolution = cfg.PageResolution()
		s.skip = cfg.Skip
		if cfg.Dedupe != nil {
			s.dedupe = *cfg.Dedupe
		}
		s.userAgent = cfg.UserAgent
		return nil
	}
}

// New returns Screenshots stored in dir.
func New(dir string, opts ...Option) (_ *Screenshots, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if dir == "" {
		dir = "."
	}
	s := &Screenshots{
		dir:        dir,
		resolution: config.DefaultResolution,
		debounce:   defaultDebounce,
		timeout:    defaultCaptureTimeout,
		logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.output == "" {
		s.output = filepath.Join(s.dir, config.DefaultOutputName)
	}
	if s.client == nil {
		s.client = newHTTPClient(s.logger)
	}
	return s, nil
}

// SetPages limits assembling to the given 1-based page numbers of the listing.
func (s *Screenshots) SetPages(pages []int) {
	s.pages = pages
}

// Dir returns the screenshot directory.
func (s *Screenshots) Dir() string {
	return s.dir
}

// Output returns the path of the PDF file.
func (s *Screenshots) Output() string {
	return s.output
}

// Path returns the path of the PNG file named name in the screenshot directory.
func (s *Screenshots) Path(name string) string {
	return filepath.Join(s.dir, name+".png")
}
