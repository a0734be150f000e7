// Package cli implements the camio command line tool.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"camio-service/internal/config"
	"camio-service/internal/conversion"
	"camio-service/internal/extraction"
	"camio-service/internal/metrics"
	"camio-service/internal/models"
	"camio-service/internal/packaging"
	"camio-service/internal/utils"
)

const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitInvalidInvocation = 2
)

const usage = `usage:
  camio convert -o DIR [-rotation DEG] [-profile NAME -profiles FILE] [-size N] [-j N] [-metrics FILE] scan...
  camio preview -o FILE [-rotation DEG] [-profile NAME -profiles FILE] [-size N] scan
  camio inspect archive.camio
  camio extract [-o DIR] archive.camio`

// UsageError is returned for malformed invocations.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Run executes one camio command and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := dispatch(ctx, args, stdout, stderr)
	if err == nil {
		return ExitSuccess
	}
	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(stderr, uerr.Message)
		fmt.Fprintln(stderr, usage)
		return ExitInvalidInvocation
	}
	fmt.Fprintln(stderr, err)
	if conversion.KindOf(err) == conversion.KindInput {
		return ExitInvalidInvocation
	}
	return ExitFailure
}

func dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return usagef("missing command")
	}
	switch args[0] {
	case "convert":
		return runConvert(ctx, args[1:], stdout, stderr)
	case "preview":
		return runPreview(args[1:], stdout)
	case "inspect":
		return runInspect(ctx, args[1:], stdout)
	case "extract":
		return runExtract(ctx, args[1:], stdout)
	default:
		return usagef("unknown command %q", args[0])
	}
}

// renderFlags are shared by convert and preview.
type renderFlags struct {
	rotation     float64
	profile      string
	profilesPath string
	size         int
}

func (rf *renderFlags) register(fs *flag.FlagSet) {
	fs.Float64Var(&rf.rotation, "rotation", 0, "extra rotation in degrees")
	fs.StringVar(&rf.profile, "profile", "", "render profile name")
	fs.StringVar(&rf.profilesPath, "profiles", "", "YAML file with render profiles")
	fs.IntVar(&rf.size, "size", conversion.DefaultCanvasSize, "canvas side in pixels")
}

func (rf *renderFlags) renderConfig() (models.RenderConfig, error) {
	if rf.profile == "" {
		return models.DefaultRenderConfig(), nil
	}
	profiles, err := config.LoadRenderProfiles(rf.profilesPath)
	if err != nil {
		return nil, err
	}
	cfg, ok := profiles.Get(rf.profile)
	if !ok {
		return nil, usagef("unknown render profile %q", rf.profile)
	}
	return cfg, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

// ReadScan loads a scan from JSON, or from msgpack when the file has a
// .msgpack extension.
func ReadScan(path string) (models.Scan, error) {
	var scan models.Scan
	data, err := os.ReadFile(path)
	if err != nil {
		return scan, err
	}
	if strings.EqualFold(filepath.Ext(path), ".msgpack") {
		err = msgpack.Unmarshal(data, &scan)
	} else {
		err = json.Unmarshal(data, &scan)
	}
	if err != nil {
		return scan, errors.Wrapf(err, "could not decode %s", path)
	}
	scan.Normalize()
	if err := scan.Validate(); err != nil {
		return scan, errors.Wrapf(err, "invalid scan %s", path)
	}
	return scan, nil
}

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("convert")
	var rf renderFlags
	rf.register(fs)
	outDir := fs.String("o", "", "output directory")
	jobs := fs.Int("j", runtime.NumCPU(), "maximum parallel conversions")
	metricsPath := fs.String("metrics", "", "write conversion metrics to this textfile")
	title := fs.String("title", "", "map title")
	lang := fs.String("lang", "", "language tag for data.json")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *outDir == "" {
		return usagef("convert: -o is required")
	}
	if fs.NArg() == 0 {
		return usagef("convert: no scan files given")
	}
	if *jobs < 1 {
		return usagef("convert: -j must be at least 1")
	}
	meta := packaging.MetadataOptions{Title: *title}
	if *lang != "" {
		tag, err := config.NormalizeLang(*lang)
		if err != nil {
			return usagef("convert: %v", err)
		}
		meta.Lang = tag
	}

	cfg, err := rf.renderConfig()
	if err != nil {
		return err
	}
	conv, err := conversion.NewConverter(conversion.WithCanvasSize(rf.size))
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	m := utils.NewMetrics(reg)
	batch := metrics.NewBatchMetrics()

	paths := make([]string, fs.NArg())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*jobs)
	for i, input := range fs.Args() {
		g.Go(func() error {
			scan, err := ReadScan(input)
			if err != nil {
				batch.Record(0, 0, 0, err)
				return err
			}
			start := time.Now()
			res, err := conv.Export(gctx, scan, cfg, rf.rotation, *outDir, meta)
			elapsed := time.Since(start)
			m.RecordConversion(utils.EntrypointCLI, float64(elapsed.Microseconds())/1000.0, err)
			if err != nil {
				batch.Record(0, 0, elapsed, err)
				return errors.Wrapf(err, "%s", input)
			}
			m.RecordExport(res.Size, len(res.Metadata.Hotspots))
			batch.Record(res.Size, len(res.Metadata.Hotspots), elapsed, nil)
			paths[i] = res.Path
			return nil
		})
	}
	err = g.Wait()
	batch.Finalize()
	fmt.Fprintln(stderr, batch.GetSummary())

	if *metricsPath != "" {
		if werr := prometheus.WriteToTextfile(*metricsPath, reg); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

func runPreview(args []string, stdout io.Writer) error {
	fs := newFlagSet("preview")
	var rf renderFlags
	rf.register(fs)
	out := fs.String("o", "", "output PNG file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() != 1 {
		return usagef("preview: need -o and exactly one scan file")
	}

	cfg, err := rf.renderConfig()
	if err != nil {
		return err
	}
	scan, err := ReadScan(fs.Arg(0))
	if err != nil {
		return err
	}
	conv, err := conversion.NewConverter(conversion.WithCanvasSize(rf.size))
	if err != nil {
		return err
	}
	img, err := conv.Preview(scan, cfg, rf.rotation)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(*out)
		return errors.Wrap(err, "could not encode preview")
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, *out)
	return nil
}

func runInspect(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("inspect")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("inspect: need exactly one archive")
	}

	a, err := extraction.ReadArchive(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	names := make([]string, 0, len(a.Sizes))
	for name := range a.Sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(stdout, "%s\n", a.Path)
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-14s %d bytes\n", name, a.Sizes[name])
	}
	b := a.Template.Bounds()
	fmt.Fprintf(stdout, "canvas: %dx%d\n", b.Dx(), b.Dy())
	fmt.Fprintf(stdout, "title: %s (%s)\n", a.Metadata.Title, a.Metadata.Lang)
	fmt.Fprintf(stdout, "hotspots: %d\n", len(a.Metadata.Hotspots))
	for _, h := range a.Metadata.Hotspots {
		fmt.Fprintf(stdout, "  %-20s %s\n", h.HotspotTitle, h.Color)
	}

	report := extraction.VerifyParity(a)
	if report.OK() {
		fmt.Fprintln(stdout, "parity: ok")
		return nil
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(stdout, "parity: not painted: %s\n", strings.Join(report.Missing, ", "))
	}
	if len(report.Shared) > 0 {
		fmt.Fprintf(stdout, "parity: shared colors: %s\n", strings.Join(report.Shared, ", "))
	}
	return errors.New("color map parity check failed")
}

func runExtract(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("extract")
	dest := fs.String("o", "", "destination directory, a temporary one when empty")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("extract: need exactly one archive")
	}

	files, dir, err := extraction.ExtractArchive(ctx, fs.Arg(0), *dest)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, dir)
	for _, f := range files {
		fmt.Fprintf(stdout, "  %s\n", f)
	}
	return nil
}
