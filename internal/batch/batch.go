// Package batch encodes or decodes many files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/mnightingale/quotedprintable"
)

const decodedFallbackSuffix = ".out"

// ErrDuplicateOutput is reported for an input whose output file is already
// claimed by an earlier input of the same run.
var ErrDuplicateOutput = errors.New("output path already used by another input")

// Summary counts the files of one run. Failed files are included in Files.
type Summary struct {
	Files    int
	Failed   int
	BytesIn  int64
	BytesOut int64
}

// Runner encodes or decodes batches of files.
type Runner struct {
	cfg *Config
}

// New returns a [Runner] configured by opts.
func New(opts ...Option) *Runner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Runner{cfg: cfg}
}

type job struct {
	src, dst string
}

type fileFunc func(ctx context.Context, src, dst string) (in, out int64, err error)

// EncodeFiles writes the quoted-printable form of every path to a file with
// the configured suffix appended.
func (r *Runner) EncodeFiles(ctx context.Context, paths []string) (Summary, error) {
	return r.run(ctx, paths, r.EncodedPath, r.encodeFile)
}

// DecodeFiles decodes every path into a file with the configured suffix
// removed, or with ".out" appended when the suffix is absent.
func (r *Runner) DecodeFiles(ctx context.Context, paths []string) (Summary, error) {
	return r.run(ctx, paths, r.DecodedPath, r.decodeFile)
}

// EncodedPath returns the file EncodeFiles writes for path.
func (r *Runner) EncodedPath(path string) string {
	return filepath.Join(r.dir(path), filepath.Base(path)+r.cfg.suffix)
}

// DecodedPath returns the file DecodeFiles writes for path.
func (r *Runner) DecodedPath(path string) string {
	base := filepath.Base(path)
	if trimmed, ok := strings.CutSuffix(base, r.cfg.suffix); ok && trimmed != "" {
		return filepath.Join(r.dir(path), trimmed)
	}
	return filepath.Join(r.dir(path), base+decodedFallbackSuffix)
}

func (r *Runner) dir(path string) string {
	if r.cfg.outputDir != "" {
		return r.cfg.outputDir
	}
	return filepath.Dir(path)
}

func (r *Runner) run(ctx context.Context, paths []string, target func(string) string, fn fileFunc) (Summary, error) {
	var (
		mx   sync.Mutex
		sum  Summary
		merr *multierror.Error
		g    errgroup.Group
	)
	g.SetLimit(r.cfg.workers)

	// Outputs are claimed up front so two inputs never write the same file.
	claimed := make(map[string]string, len(paths))
	var jobs []job
	for _, path := range paths {
		dst := target(path)
		key := filepath.Clean(dst)
		if first, ok := claimed[key]; ok {
			sum.Files++
			sum.Failed++
			merr = multierror.Append(merr, fmt.Errorf("%s: %w: %s -> %s", path, ErrDuplicateOutput, first, dst))
			r.cfg.log.ErrorContext(ctx, "Skipping file with duplicate output", "path", path, "output", dst, "claimed_by", first)
			continue
		}
		claimed[key] = path
		jobs = append(jobs, job{src: path, dst: dst})
	}

	for _, j := range jobs {
		path, dst := j.src, j.dst
		if err := ctx.Err(); err != nil {
			mx.Lock()
			merr = multierror.Append(merr, err)
			mx.Unlock()
			break
		}

		g.Go(func() error {
			in, out, err := fn(ctx, path, dst)

			mx.Lock()
			defer mx.Unlock()

			sum.Files++
			if err != nil {
				sum.Failed++
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", path, err))
				r.cfg.log.ErrorContext(ctx, "Failed to process file", "path", path, "err", err)
				return nil
			}

			sum.BytesIn += in
			sum.BytesOut += out
			r.cfg.log.DebugContext(ctx, "Processed file", "path", path, "output", dst, "in", in, "out", out)
			return nil
		})
	}

	_ = g.Wait()

	return sum, merr.ErrorOrNil()
}

func (r *Runner) encodeFile(ctx context.Context, src, dst string) (in, out int64, err error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	o, err := os.Create(dst)
	if err != nil {
		return 0, 0, err
	}

	enc := quotedprintable.NewEncoder(o)
	in, err = io.Copy(enc, contextReader{ctx: ctx, r: f})
	if closeErr := enc.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return in, 0, err
	}

	return in, enc.Stats().BytesProduced, nil
}

func (r *Runner) decodeFile(ctx context.Context, src, dst string) (in, out int64, err error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	o, err := os.Create(dst)
	if err != nil {
		return 0, 0, err
	}

	dec := quotedprintable.NewDecoder(contextReader{ctx: ctx, r: f}, quotedprintable.WithLineSeparator(r.cfg.sep))
	out, err = io.Copy(o, dec)
	if closeErr := o.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return dec.Stats().BytesConsumed, 0, err
	}

	return dec.Stats().BytesConsumed, out, nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
