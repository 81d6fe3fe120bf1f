package seamcarve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/seamcarve/seamcarve/imop"
	"github.com/seamcarve/seamcarve/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// DefaultQuality is the JPEG quality used when none is set.
const DefaultQuality = 95

var (
	// inputExtensions are the file types picked up from a source directory.
	inputExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp"}
	// outputExtensions are the file types the encoder can write.
	outputExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}
)

// Processor holds the carving request applied to every processed image.
type Processor struct {
	// Width and Height are the target size as a fraction of the original one.
	// Zero means 1, i.e. the dimension is left untouched.
	Width, Height float64
	// NewWidth and NewHeight are absolute targets in pixels and take
	// precedence over the fractions when set.
	NewWidth, NewHeight int

	SeamColor string
	// SeamOp names the Porter-Duff operator painting the seam color on the overlay.
	SeamOp  string
	Quality int

	// EnergyOut and SeamOut are optional paths where the last energy map
	// and the last seam overlay are saved.
	EnergyOut string
	SeamOut   string

	Report bool
	Logger *log.Logger
	// Out receives the report. Defaults to os.Stderr.
	Out io.Writer
}

// Ops describes where the images are read from and written to.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the outcome of a single image processed in directory mode.
type result struct {
	path string
	err  error
}

func (p *Processor) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(io.Discard)
	}
	return p.Logger
}

func (p *Processor) out() io.Writer {
	if p.Out == nil {
		return os.Stderr
	}
	return p.Out
}

// targetSize converts the requested size to absolute row and column counts.
func (p *Processor) targetSize(b image.Rectangle) (rows, cols int) {
	scale := func(size int, f float64) int {
		if f == 0 {
			return size
		}
		return int(float64(size) * f)
	}
	cols, rows = scale(b.Dx(), p.Width), scale(b.Dy(), p.Height)
	if p.NewWidth > 0 {
		cols = p.NewWidth
	}
	if p.NewHeight > 0 {
		rows = p.NewHeight
	}
	return rows, cols
}

// Process decodes the image read from r, carves it and encodes the result to w
// in the format given by ext. An empty ext writes JPEG.
func (p *Processor) Process(r io.Reader, w io.Writer, ext string) error {
	src, err := Decode(r)
	if err != nil {
		return err
	}

	opts := []Option{WithLogger(p.logger())}
	if p.SeamColor != "" {
		c, err := utils.HexToRGBA(p.SeamColor)
		if err != nil {
			return err
		}
		opts = append(opts, WithSeamColor(c))
	}
	if p.SeamOp != "" {
		op, err := imop.ParseOp(p.SeamOp)
		if err != nil {
			return err
		}
		opts = append(opts, WithSeamOp(op))
	}

	eng, err := NewEngine(src, opts...)
	if err != nil {
		return err
	}

	rows, cols := p.targetSize(eng.OriginalBounds())
	if err := eng.Retarget(rows, cols); err != nil {
		return err
	}

	quality := p.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	if err := encodeImg(w, eng.Image(), ext, quality); err != nil {
		return fmt.Errorf("could not encode the image: %w", err)
	}

	if p.EnergyOut != "" {
		if err := saveImage(p.EnergyOut, eng.EnergyMap(), quality); err != nil {
			return fmt.Errorf("could not save the energy map: %w", err)
		}
	}
	if p.SeamOut != "" {
		if err := saveImage(p.SeamOut, eng.SeamOverlay(), quality); err != nil {
			return fmt.Errorf("could not save the seam overlay: %w", err)
		}
	}

	if p.Report {
		// Rendered in one write so that concurrent reports don't interleave.
		var buf bytes.Buffer
		eng.PrintReport(&buf)
		if _, err := p.out().Write(buf.Bytes()); err != nil {
			return fmt.Errorf("could not write the report: %w", err)
		}
	}
	return nil
}

// Execute carves the source described by op: a local file, a directory,
// an http(s) URL or the pipe name standing for stdin.
func (p *Processor) Execute(ctx context.Context, op *Ops) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		f, err := utils.DownloadImage(ctx, op.Src)
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		defer os.Remove(f.Name())
		if err := f.Close(); err != nil {
			return err
		}
		return p.processFile(op, f.Name(), op.Dst)
	}

	if op.Src == op.PipeName {
		return p.processFile(op, op.Src, op.Dst)
	}

	fi, err := os.Stat(op.Src)
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	switch mode := fi.Mode(); {
	case mode.IsDir():
		return p.processDir(ctx, op)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		return p.processFile(op, op.Src, op.Dst)
	default:
		return fmt.Errorf("unsupported source file mode %v", mode)
	}
}

// processDir carves every supported image found under op.Src concurrently,
// mirroring the directory tree into op.Dst.
func (p *Processor) processDir(ctx context.Context, op *Ops) error {
	if op.Dst == op.PipeName {
		return errors.New("a directory source needs a directory destination")
	}
	srcAbs, err := filepath.Abs(op.Src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(op.Dst)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return errors.New("the destination directory must differ from the source directory")
	}
	if err := os.MkdirAll(op.Dst, 0o755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	dp := *p
	if dp.EnergyOut != "" || dp.SeamOut != "" {
		dp.logger().Warn("energy and seam outputs are ignored when processing a directory")
		dp.EnergyOut, dp.SeamOut = "", ""
	}

	workers := op.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = utils.Min(workers, maxWorkers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A destination nested in the source is skipped, its files are our own outputs.
	paths, errc := walkDir(ctx, op.Src, dstAbs, inputExtensions)
	res := make(chan result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			dp.consumer(ctx, op, res, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(res)
		wg.Wait()
	}()

	var errs []error
	for r := range res {
		if r.err != nil {
			dp.logger().Error("failed to carve image", "path", r.path, "err", r.err)
			errs = append(errs, fmt.Errorf("%s: %w", r.path, r.err))
		}
	}
	if err := <-errc; err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// consumer reads the path names from the paths channel and carves the image behind each of them.
func (p *Processor) consumer(ctx context.Context, op *Ops, res chan<- result, paths <-chan string) {
	for src := range paths {
		dst, err := destPath(op.Src, op.Dst, src)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(dst), 0o755)
		}
		if err == nil {
			err = p.processFile(op, src, dst)
		}

		select {
		case <-ctx.Done():
			return
		case res <- result{path: src, err: err}:
		}
	}
}

// destPath maps a file found under root to its place under dest.
// WebP images are written as PNG.
func destPath(root, dest, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if ext := filepath.Ext(rel); strings.EqualFold(ext, ".webp") {
		rel = strings.TrimSuffix(rel, ext) + ".png"
	}
	return filepath.Join(dest, rel), nil
}

// processFile carves a single image from in to out, any of which can be the pipe name.
func (p *Processor) processFile(op *Ops, in, out string) error {
	var ext string
	if out != op.PipeName {
		ext = strings.ToLower(filepath.Ext(out))
		if !isValidExtension(ext, outputExtensions) {
			return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
		}
	}

	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}
	defer closeReader(src)

	err = p.Process(src, dst, ext)
	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			// remove the partially written image file
			os.Remove(f.Name())
		}
	}
	if err != nil {
		return err
	}

	if out != op.PipeName {
		p.logger().Info("image saved", "path", out)
	}
	return nil
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
	)

	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		f, err := os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
		src = f
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			closeReader(src)
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		f, err := os.Create(out)
		if err != nil {
			closeReader(src)
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
		dst = f
	}
	return src, dst, nil
}

func closeReader(r io.Reader) {
	if f, ok := r.(*os.File); ok && f != os.Stdin {
		f.Close()
	}
}

// saveImage writes img to path in the format matching its extension.
func saveImage(path string, img image.Image, quality int) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !isValidExtension(ext, outputExtensions) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeImg(f, img, ext, quality); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported image to a new channel.
// The directory whose absolute path is skip, if any, is not descended into.
// It stops when the context is cancelled.
func walkDir(ctx context.Context, src, skip string, srcExts []string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skip != "" {
					if abs, err := filepath.Abs(path); err == nil && abs == skip {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !isValidExtension(strings.ToLower(filepath.Ext(path)), srcExts) {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
