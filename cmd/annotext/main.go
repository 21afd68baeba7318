// Command annotext opens a PDF, reconciles its text layer (native extraction
// with OCR fallback), and then runs searches, automation scripts, report
// exports and backend sync against the annotation state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/annokit/config"
	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/ocr"
	"github.com/wudi/annokit/ocr/tesseract"
	"github.com/wudi/annokit/pagesource"
	"github.com/wudi/annokit/persist"
	"github.com/wudi/annokit/report"
	"github.com/wudi/annokit/scripting"
	"github.com/wudi/annokit/search"
	"github.com/wudi/annokit/store"
)

type options struct {
	pdfPath    string
	configPath string
	query      string
	reportPath string
	scriptPath string
	useOCR     bool
	sync       bool
	verbose    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "annotext: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "annotext: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: annotext [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&opts.query, "query", "", "Search query to run against the document text")
	flag.StringVar(&opts.reportPath, "report", "", "Write an annotation report (.md, .html or .pdf)")
	flag.StringVar(&opts.scriptPath, "script", "", "Run a JavaScript automation script")
	flag.BoolVar(&opts.useOCR, "ocr", false, "Enable the Tesseract fallback for scanned pages")
	flag.BoolVar(&opts.sync, "sync", false, "Fetch from and save to the configured backend")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if flag.NArg() != 1 {
		return options{}, fmt.Errorf("expected exactly one PDF path, got %d", flag.NArg())
	}
	opts.pdfPath = flag.Arg(0)
	return opts, nil
}

func run(opts options) error {
	ctx := context.Background()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	var logger observability.Logger = observability.NopLogger{}
	if opts.verbose {
		logger = observability.NewTextLogger(os.Stderr)
	}

	provider, err := pagesource.OpenFile(opts.pdfPath)
	if err != nil {
		return err
	}
	defer provider.Close()

	var engine ocr.Engine
	if opts.useOCR {
		engine = tesseract.New()
	}
	reconciler := ocr.NewReconciler(provider, engine,
		ocr.WithWorkers(cfg.OCR.Workers),
		ocr.WithOversample(cfg.OCR.Oversample),
		ocr.WithReconcilerLanguages(cfg.OCR.Languages...),
		ocr.WithReconcilerLogger(logger),
	)
	if err := reconciler.ProcessAll(ctx); err != nil {
		return err
	}

	st := store.New(store.WithLogger(logger))
	searcher := search.New(&reconcilerSource{provider: provider, reconciler: reconciler},
		search.WithLogger(logger))

	var client *persist.Client
	if opts.sync {
		if cfg.Backend.BaseURL == "" || cfg.Backend.PDFID == "" {
			return fmt.Errorf("sync requested but backend.base_url/pdf_id are not configured")
		}
		client = persist.NewClient(cfg.Backend.BaseURL, cfg.Backend.PDFID, persist.WithLogger(logger))
		remote, err := client.Fetch(ctx)
		if err != nil {
			return err
		}
		for _, a := range remote {
			st.AddAnnotation(a)
		}
		fmt.Printf("loaded %d annotations from backend\n", len(remote))
	}

	if opts.query != "" {
		matches, err := searcher.Run(ctx, opts.query)
		if err != nil {
			return err
		}
		fmt.Printf("%d match(es) for %q\n", len(matches), opts.query)
		for _, m := range matches {
			fmt.Printf("  page %d, offset %d\n", m.PageNumber, m.Start)
		}
	}

	if opts.scriptPath != "" {
		if err := runScript(ctx, opts.scriptPath, st, searcher, logger); err != nil {
			return err
		}
	}

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, opts.pdfPath, st); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", opts.reportPath)
	}

	if client != nil {
		summary := client.SaveAll(ctx, st.Annotations())
		fmt.Printf("saved %d, skipped %d\n", summary.Saved, summary.Skipped)
		if err := summary.Err(); err != nil {
			return err
		}
	}
	return nil
}

func runScript(ctx context.Context, path string, st *store.Store, searcher *search.Engine, logger observability.Logger) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	engine := scripting.NewEngine()
	if err := engine.RegisterDOM(scripting.NewStoreDOM(st, searcher, logger)); err != nil {
		return err
	}
	result, err := engine.Execute(ctx, string(script))
	if err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	if result != nil {
		fmt.Printf("script result: %v\n", result)
	}
	return nil
}

func writeReport(path, pdfPath string, st *store.Store) error {
	title := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	rep := report.Build(title, st)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return os.WriteFile(path, []byte(rep.Markdown()), 0o644)
	case ".html":
		html, err := rep.HTML()
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(html), 0o644)
	case ".pdf":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return rep.PDF(f)
	}
	return fmt.Errorf("unsupported report format %q (want .md, .html or .pdf)", filepath.Ext(path))
}

// reconcilerSource feeds the search engine from reconciled page text. Both
// native and OCR pages expose word lists, so everything goes through the
// word path, which joins words with single spaces.
type reconcilerSource struct {
	provider   pagesource.Provider
	reconciler *ocr.Reconciler
}

func (s *reconcilerSource) PageCount() int { return s.provider.PageCount() }

func (s *reconcilerSource) NativeLayer(pageNumber int) (*search.NativeLayer, bool) {
	return nil, false
}

func (s *reconcilerSource) OCRWords(pageNumber int) ([]search.Word, bool) {
	pt, ok := s.reconciler.PageText(pageNumber)
	if !ok || pt.Failed {
		return nil, false
	}
	words := make([]search.Word, 0, len(pt.Words))
	for _, w := range pt.Words {
		words = append(words, search.Word{Text: w.Text, Rect: w.Rect})
	}
	return words, true
}
