package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/afb/internal/log"
	"github.com/zjrosen/afb/internal/manifest"
	"github.com/zjrosen/afb/internal/presentation"
	"github.com/zjrosen/afb/internal/registry"
	"github.com/zjrosen/afb/internal/spec"
	"github.com/zjrosen/afb/internal/tracing"
	"github.com/zjrosen/afb/internal/watcher"
)

var (
	makeFile  string
	makeKey   string
	makeWatch bool
	makeTrace string
)

var makeCmd = &cobra.Command{
	Use:   "make CLASS -f FILE",
	Short: "Build an object from a manifest file",
	Long: `Load a manifest and build the object it describes, printing the result as JSON.

Without --key the file holds a single-key object spec ({unit: inputs}); when
it does not and the class has a default unit, the whole file is used as the
inputs of that unit. With --key the file holds the inputs of the named unit.

Sweep values are expanded into the list of values they yield.

Examples:
  afb make values -f grid.yaml
  afb make dict -f settings.toml --key afb/direct
  afb make values -f grid.yaml --watch
  afb make values -f grid.yaml --trace stdout`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := directory()
		if err != nil {
			return err
		}
		cls, err := resolveClass(d, args[0])
		if err != nil {
			return err
		}

		tracingCfg := cfg.Tracing
		if makeTrace != "" {
			tracingCfg.Enabled = true
			tracingCfg.Exporter = makeTrace
		}
		provider, err := tracing.NewProvider(tracingCfg)
		if err != nil {
			return fmt.Errorf("creating tracer: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				log.ErrorErr(log.CatTrace, "Tracer shutdown failed", err)
			}
		}()

		m := &maker{dir: d, tracer: provider.Tracer(), class: cls, key: makeKey, path: makeFile}
		out := cmd.OutOrStdout()
		if !makeWatch {
			return m.print(cmd.Context(), out)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return m.watch(ctx, out, cfg.Watch.Debounce)
	},
}

func init() {
	makeCmd.Flags().StringVarP(&makeFile, "file", "f", "", "Manifest file (.yaml, .json, .toml, .hcl, .cue or .cbor)")
	makeCmd.Flags().StringVarP(&makeKey, "key", "k", "", "Unit to call with the file as its inputs")
	makeCmd.Flags().BoolVarP(&makeWatch, "watch", "w", false, "Rebuild when the file changes and print what changed")
	makeCmd.Flags().StringVar(&makeTrace, "trace", "", "Trace the build with the given exporter (file, stdout, otlp)")
	_ = makeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(makeCmd)
}

// maker builds one manifest file.
type maker struct {
	dir    *registry.Directory
	tracer trace.Tracer
	class  reflect.Type
	key    string
	path   string
}

// build loads the manifest and builds it under a fresh run id.
func (m *maker) build(ctx context.Context) (presentation.MakeResultDTO, error) {
	runID := tracing.NewRunID()
	ctx = tracing.ContextWithRunID(ctx, runID)
	className := spec.QualifiedName(m.class)

	doc, err := tracing.Around(ctx, m.tracer, tracing.SpanLoad, func(context.Context) (map[string]any, error) {
		return manifest.Load(m.path)
	}, attribute.String(tracing.AttrManifest, m.path))
	if err != nil {
		return presentation.MakeResultDTO{}, err
	}

	key := m.key
	reg := m.dir.GetOrCreate(m.class)
	if key == "" && !isObjectSpec(reg, doc) {
		if def, ok := reg.Default(); ok {
			key = def
		}
	}

	result, err := tracing.Around(ctx, m.tracer, tracing.SpanMake, func(context.Context) (any, error) {
		if key != "" {
			return m.dir.Make(m.class, key, doc)
		}
		return m.dir.Realize(m.class, doc)
	}, attribute.String(tracing.AttrClass, className), attribute.String(tracing.AttrKey, key))
	if err != nil {
		log.ErrorErr(log.CatMake, "Make failed", err, "run_id", runID, "class", className, "path", m.path)
		return presentation.MakeResultDTO{}, err
	}

	log.Info(log.CatMake, "Made object", "run_id", runID, "class", className, "key", key, "path", m.path)
	return presentation.MakeResultDTO{
		RunID:  runID,
		Class:  className,
		Key:    key,
		Result: presentation.Expand(result),
	}, nil
}

// isObjectSpec reports whether doc is a single-key map naming a unit of reg.
func isObjectSpec(reg *registry.Registry, doc map[string]any) bool {
	if len(doc) != 1 {
		return false
	}
	for k := range doc {
		return reg.Has(k)
	}
	return false
}

// render builds the manifest and encodes the result as JSON.
func (m *maker) render(ctx context.Context) (string, error) {
	res, err := m.build(ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := presentation.NewFormatter(&buf, 0).FormatResult(res.Result); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m *maker) print(ctx context.Context, w io.Writer) error {
	res, err := m.build(ctx)
	if err != nil {
		return err
	}
	return presentation.NewFormatter(w, 0).FormatResult(res)
}

// watch rebuilds on every change of the manifest file until ctx is done.
// The first build prints the result, later builds print a diff against the
// previous one. Failed builds are reported and watching continues.
func (m *maker) watch(ctx context.Context, w io.Writer, debounce time.Duration) error {
	wcfg := watcher.DefaultConfig(m.path)
	if debounce > 0 {
		wcfg.Debounce = debounce
	}
	fw, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	changes, err := fw.Start()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Stop() }()

	prev, err := m.render(ctx)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	} else {
		fmt.Fprint(w, prev)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			cur, err := m.render(ctx)
			if err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
				continue
			}
			fmt.Fprint(w, resultDiff(prev, cur))
			prev = cur
		}
	}
}

// resultDiff renders the line changes between two results, or a note when
// nothing changed.
func resultDiff(prev, cur string) string {
	if prev == cur {
		return "(unchanged)\n"
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(prev, cur)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf bytes.Buffer
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}
