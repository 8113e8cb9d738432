package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/skillforge/extraction-engine/internal/config"
	"github.com/skillforge/extraction-engine/internal/observability"
	"github.com/skillforge/extraction-engine/pkg/engine"
)

var (
	password   string
	workers    int
	sequential bool
	noTables   bool
	enableOCR  bool
	noCache    bool
	threshold  float64
	outputJSON bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract structured content from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&password, "password", "p", "", "password for encrypted documents")
	extractCmd.Flags().IntVarP(&workers, "workers", "w", 0, "maximum parallel workers (0 = config default)")
	extractCmd.Flags().BoolVar(&sequential, "sequential", false, "process pages sequentially")
	extractCmd.Flags().BoolVar(&noTables, "no-tables", false, "skip table extraction")
	extractCmd.Flags().BoolVar(&enableOCR, "ocr", false, "enable recognition-from-image for sparse pages")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	extractCmd.Flags().Float64Var(&threshold, "quality-threshold", 0, "drop code candidates scoring below this (0-10)")
	extractCmd.Flags().BoolVar(&outputJSON, "json", false, "print the full document record as JSON")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if workers > 0 {
		cfg.Pipeline.MaxWorkers = workers
	}
	if sequential {
		cfg.Pipeline.Parallel = false
	}
	if noTables {
		cfg.Extraction.ExtractTables = false
	}
	if enableOCR {
		cfg.Extraction.EnableRecognitionFallback = true
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cmd.Flags().Changed("quality-threshold") {
		cfg.Extraction.QualityThreshold = threshold
	}

	logLevel := cfg.Observability.LogLevel
	if !verbose {
		logLevel = "warn"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       logLevel,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: "extraction-engine",
	})

	eng, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer eng.Close()

	var bar *progressbar.ProgressBar
	if !outputJSON {
		eng.OnPage = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("extracting pages"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		}
	}

	doc, err := eng.ExtractFile(context.Background(), args[0], password)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	printSummary(doc)
	return nil
}

func printSummary(doc *engine.Document) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Printf("\n%s\n", doc.SourceID)
	fmt.Printf("  pages: %d  encrypted: %t  duration: %s\n",
		doc.PageCount, doc.Encrypted, doc.Stats.Duration.Round(1e6))

	if doc.Stats.CacheHit {
		yellow.Println("  served from cache")
	}

	bold.Println("\nChapters")
	for _, ch := range doc.Chapters {
		title := ch.Title
		if title == "" {
			title = "(unnamed)"
		}
		fmt.Printf("  %-50s pages %d-%d\n", title, ch.StartPage, ch.EndPage-1)
	}

	bold.Println("\nCode candidates")
	for _, cand := range doc.Candidates() {
		marker := green.Sprint("ok")
		if !cand.SyntaxOK {
			marker = yellow.Sprint("??")
		}
		fmt.Printf("  [%s] %-10s score %4.1f  conf %.2f  pages %d-%d  (%d lines)\n",
			marker, cand.Language, cand.Score, cand.Confidence,
			cand.Pages.Start, cand.Pages.End, cand.LineCount())
	}

	tables := 0
	for _, p := range doc.Pages {
		tables += len(p.Tables)
	}
	fmt.Printf("\n  tables: %d  merged blocks: %d  candidates dropped: %d\n",
		tables, doc.Stats.MergedBlocks, doc.Stats.CandidatesDropped)

	if failed := doc.FailedPages(); len(failed) > 0 {
		red.Printf("  failed pages: %v\n", failed)
	}
}
