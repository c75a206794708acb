package adapter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	m "stapper.dev/pkg/stapper/internal/model"
)

// PreprocessOptions configures one preprocessor invocation.
type PreprocessOptions struct {
	IncludeDirs []string
	Defines     []string // NAME or NAME=VALUE, passed as -D
	Undefines   []string // passed as -U
	ExtraArgs   []string
}

// Args renders the options as cpp command-line arguments.
func (o PreprocessOptions) Args() []string {
	args := make([]string, 0, len(o.IncludeDirs)+len(o.Defines)+len(o.Undefines)+len(o.ExtraArgs))

	for _, dir := range o.IncludeDirs {
		args = append(args, "-I"+dir)
	}

	for _, def := range o.Defines {
		args = append(args, "-D"+def)
	}

	for _, undef := range o.Undefines {
		args = append(args, "-U"+undef)
	}

	return append(args, o.ExtraArgs...)
}

// PreprocessorAdapter runs the C preprocessor over a source file.
type PreprocessorAdapter interface {
	Preprocess(ctx context.Context, path m.Path, opts PreprocessOptions) ([]byte, error)
}

//go:embed libc_shim
var libcShim embed.FS

const libcShimRoot = "libc_shim"

// CPreprocessorAdapter executes the system cpp. Shim headers (for instance
// the probe header an instrumented file includes) are materialized as empty
// files in a private include directory that is searched after the
// configured ones. With the libc shim enabled that directory also holds a
// minimal set of standard headers, so sources can be preprocessed with
// -nostdinc instead of against the host's libc.
type CPreprocessorAdapter struct {
	binary      string
	timeout     time.Duration
	shimHeaders []string
	libcShim    bool

	shimOnce sync.Once
	shimDir  string
	shimErr  error
}

// CPreprocessorOption configures a CPreprocessorAdapter.
type CPreprocessorOption func(*CPreprocessorAdapter)

// WithShimHeaders adds empty headers to the private include directory.
func WithShimHeaders(headers ...string) CPreprocessorOption {
	return func(a *CPreprocessorAdapter) {
		a.shimHeaders = append(a.shimHeaders, headers...)
	}
}

// WithLibcShim adds the built-in standard header shim to the private
// include directory.
func WithLibcShim() CPreprocessorOption {
	return func(a *CPreprocessorAdapter) {
		a.libcShim = true
	}
}

// NewCPreprocessorAdapter constructs a CPreprocessorAdapter with a 30s timeout.
func NewCPreprocessorAdapter(binary string, options ...CPreprocessorOption) *CPreprocessorAdapter {
	if strings.TrimSpace(binary) == "" {
		binary = "cpp"
	}

	a := &CPreprocessorAdapter{
		binary:  binary,
		timeout: 30 * time.Second,
	}

	for _, option := range options {
		option(a)
	}

	return a
}

// Preprocess runs `cpp -E -P` over path and returns the preprocessed text.
func (a *CPreprocessorAdapter) Preprocess(ctx context.Context, path m.Path, opts PreprocessOptions) ([]byte, error) {
	shimDir, err := a.ensureShimDir()
	if err != nil {
		return nil, err
	}

	if shimDir != "" {
		opts.IncludeDirs = append(append([]string{}, opts.IncludeDirs...), shimDir)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := append([]string{"-E", "-P"}, opts.Args()...)
	args = append(args, string(path))

	// #nosec G204 - binary comes from the operator's configuration
	cmd := exec.CommandContext(ctx, a.binary, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", a.binary, path, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// Close removes the shim include directory.
func (a *CPreprocessorAdapter) Close() error {
	if a.shimDir == "" {
		return nil
	}

	return os.RemoveAll(a.shimDir)
}

func (a *CPreprocessorAdapter) ensureShimDir() (string, error) {
	if len(a.shimHeaders) == 0 && !a.libcShim {
		return "", nil
	}

	a.shimOnce.Do(func() {
		dir, err := os.MkdirTemp("", "stapper-shim-*")
		if err != nil {
			a.shimErr = fmt.Errorf("failed to create shim include dir: %w", err)
			return
		}

		a.shimDir = dir

		if a.libcShim {
			if err := writeLibcShim(dir); err != nil {
				a.shimErr = fmt.Errorf("failed to write libc shim: %w", err)
				return
			}
		}

		for _, header := range a.shimHeaders {
			headerPath := filepath.Join(dir, filepath.Clean(header))
			if err := os.MkdirAll(filepath.Dir(headerPath), 0o750); err != nil {
				a.shimErr = err
				return
			}

			if err := os.WriteFile(headerPath, nil, 0o600); err != nil {
				a.shimErr = fmt.Errorf("failed to write shim header %s: %w", header, err)
				return
			}
		}
	})

	return a.shimDir, a.shimErr
}

func writeLibcShim(dir string) error {
	return fs.WalkDir(libcShim, libcShimRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, libcShimRoot), "/")
		target := filepath.Join(dir, filepath.FromSlash(rel))

		if entry.IsDir() {
			return os.MkdirAll(target, 0o750)
		}

		content, err := libcShim.ReadFile(path)
		if err != nil {
			return err
		}

		return os.WriteFile(target, content, 0o600)
	})
}
