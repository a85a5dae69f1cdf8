// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/poiesic/factcheck"
	"github.com/poiesic/factcheck/config"
	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/extract"
	"github.com/poiesic/factcheck/ingestion"
	"github.com/poiesic/factcheck/retrieve"
	"github.com/urfave/cli/v2"
)

// checkerOptions are appended to every Checker the commands open.
var checkerOptions []factcheck.Option

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "factcheck",
		Usage: "Verify numeric claims against official press releases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   config.DefaultPath(),
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the snapshot database directory",
				Value:   defaultDBPath(),
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the fact corpus from CSV files and press release pages",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "csv",
						Usage: "CSV file with id, source, date and statement columns (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "html",
						Usage: "Directory of saved press release pages (repeatable)",
					},
					&cli.StringFlag{
						Name:  "source-name",
						Usage: "Source recorded for press release pages",
						Value: ingestion.DefaultSourceName,
					},
				},
			},
			{
				Name:      "verify",
				Usage:     "Verify claims given as arguments, or one per line on stdin",
				ArgsUsage: "[claim...]",
				Action:    verifyCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print one JSON object per verdict",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Log every retrieval step at debug level",
					},
				},
			},
			{
				Name:      "extract",
				Usage:     "Show the quantities and entities found in a claim",
				ArgsUsage: "<claim>",
				Action:    extractCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Recompute every vector with the configured embedding model",
				Action: reembedCommand,
			},
			{
				Name:   "inspect",
				Usage:  "Describe the persisted snapshot",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "list",
						Usage: "Also print every fact record",
					},
				},
			},
			{
				Name:  "config",
				Usage: "Manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write the default configuration",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
					{
						Name:   "show",
						Usage:  "Print the configuration in effect",
						Action: configShowCommand,
					},
				},
			},
		},
	}
}

func defaultDBPath() string {
	return filepath.Join(filepath.Dir(config.DefaultPath()), "db")
}

func openChecker(c *cli.Context, opts ...factcheck.Option) (*factcheck.Checker, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	opts = append([]factcheck.Option{factcheck.WithConfig(cfg)}, opts...)
	opts = append(opts, checkerOptions...)

	checker, err := factcheck.Open(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return checker, nil
}

func buildCommand(c *cli.Context) error {
	var sources []ingestion.Source
	for _, path := range c.StringSlice("csv") {
		sources = append(sources, ingestion.NewCSVSource(path))
	}
	for _, dir := range c.StringSlice("html") {
		sources = append(sources, ingestion.NewHTMLSource(dir, ingestion.WithSourceName(c.String("source-name"))))
	}
	if len(sources) == 0 {
		return fmt.Errorf("at least one --csv file or --html directory is required")
	}

	checker, err := openChecker(c, factcheck.WithoutLoad(), factcheck.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer checker.Close()

	cfg := checker.Config()
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	result, err := checker.Rebuild(c.Context, sources...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Built snapshot %d: %d facts (%d skipped, %d duplicates)\n",
		result.Header.Generation, result.Header.Count, result.Skipped, result.Duplicates)
	return nil
}

type verdictOutput struct {
	Claim        string           `json:"claim"`
	Label        core.Label       `json:"label"`
	Confidence   float64          `json:"confidence"`
	Reason       core.Reason      `json:"reason"`
	Explanation  string           `json:"explanation"`
	Reference    string           `json:"reference,omitempty"`
	Source       string           `json:"source,omitempty"`
	URL          string           `json:"url,omitempty"`
	Alternatives []alternativeOut `json:"alternatives,omitempty"`
}

type alternativeOut struct {
	Reference string                `json:"reference"`
	Score     float32               `json:"score"`
	Agreement core.NumericAgreement `json:"agreement"`
}

func newVerdictOutput(claim string, v core.Verdict) verdictOutput {
	out := verdictOutput{
		Claim:       claim,
		Label:       v.Label,
		Confidence:  v.Confidence,
		Reason:      v.Reason,
		Explanation: v.Reason.Description(),
		Reference:   v.Reference(),
	}
	if v.SupportingFact != nil {
		out.Source = v.SupportingFact.Source
		out.URL = v.SupportingFact.URL
	}
	for _, alt := range v.Alternatives {
		ref := core.Verdict{SupportingFact: alt.Fact}
		out.Alternatives = append(out.Alternatives, alternativeOut{
			Reference: ref.Reference(),
			Score:     alt.SemanticScore,
			Agreement: alt.Agreement,
		})
	}
	return out
}

func verifyCommand(c *cli.Context) error {
	claims := c.Args().Slice()
	if len(claims) == 0 {
		var err error
		claims, err = readLines(c.App.Reader)
		if err != nil {
			return fmt.Errorf("failed to read claims: %w", err)
		}
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims to verify")
	}

	checker, err := openChecker(c)
	if err != nil {
		return err
	}
	defer checker.Close()

	if !checker.Ready() {
		fmt.Fprintln(c.App.ErrWriter, "Warning: no snapshot has been built; every claim will be unverifiable")
	}

	var verdicts []core.Verdict
	if c.Bool("trace") {
		monitor := retrieve.NewLogMonitor(slog.Default())
		for _, claim := range claims {
			verdicts = append(verdicts, checker.VerifyWithMonitor(c.Context, claim, monitor))
		}
	} else {
		verdicts = checker.VerifyBatch(c.Context, claims)
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		for i, v := range verdicts {
			if err := encoder.Encode(newVerdictOutput(claims[i], v)); err != nil {
				return err
			}
		}
		return nil
	}

	for i, v := range verdicts {
		if i > 0 {
			fmt.Fprintln(c.App.Writer)
		}
		printVerdict(c.App.Writer, newVerdictOutput(claims[i], v))
	}
	return nil
}

func printVerdict(w io.Writer, out verdictOutput) {
	fmt.Fprintf(w, "Claim: %s\n", out.Claim)
	fmt.Fprintf(w, "Verdict: %s (confidence %.2f)\n", out.Label, out.Confidence)
	fmt.Fprintf(w, "Reason: %s, %s\n", out.Reason, out.Explanation)
	if out.Reference != "" {
		fmt.Fprintf(w, "Official: %s\n", out.Reference)
	}
	if out.URL != "" {
		fmt.Fprintf(w, "Link: %s\n", out.URL)
	}
	for _, alt := range out.Alternatives {
		fmt.Fprintf(w, "  also: %s [%.3f, %s]\n", alt.Reference, alt.Score, alt.Agreement)
	}
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func extractCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("a claim is required")
	}

	claim := extract.New().Extract(text)
	w := c.App.Writer
	fmt.Fprintf(w, "Normalized: %s\n", claim.NormalizedText)
	for _, q := range claim.Quantities {
		fmt.Fprintf(w, "Quantity: %s\n", q)
	}
	if len(claim.Entities) > 0 {
		fmt.Fprintf(w, "Entities: %s\n", strings.Join(claim.Entities, ", "))
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	checker, err := openChecker(c, factcheck.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer checker.Close()

	result, err := checker.Reembed(c.Context)
	if errors.Is(err, core.ErrIndexNotBuilt) {
		return fmt.Errorf("nothing to reembed, run build first")
	}
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Re-embedded snapshot %d: %d facts with %s\n",
		result.Header.Generation, result.Header.Count, result.Header.EmbeddingModel)
	return nil
}

func inspectCommand(c *cli.Context) error {
	checker, err := openChecker(c)
	if err != nil {
		return err
	}
	defer checker.Close()

	snapshot := checker.Snapshot()
	if snapshot == nil {
		return fmt.Errorf("no snapshot found in %s", c.String("db"))
	}

	w := c.App.Writer
	header := snapshot.Header()
	fmt.Fprintf(w, "Generation: %d\n", header.Generation)
	fmt.Fprintf(w, "Built at: %s\n", header.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Facts: %d\n", header.Count)
	fmt.Fprintf(w, "Dimension: %d\n", header.Dimension)
	fmt.Fprintf(w, "Metric: %s\n", header.Metric)
	fmt.Fprintf(w, "Embedding model: %s\n", header.EmbeddingModel)

	if !c.Bool("list") {
		return nil
	}
	fmt.Fprintln(w)
	for _, record := range snapshot.Store().All() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", record.ID, record.Source, record.SourceDate, record.RawText)
	}
	return nil
}

func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if err := config.Default().Write(path, c.Bool("force")); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	return cfg.Encode(c.App.Writer)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	errWriter := c.App.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(errWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
