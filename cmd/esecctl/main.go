package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/zooba/esec/internal/ctxlog"
	"github.com/zooba/esec/internal/storage"
	esecapi "github.com/zooba/esec/pkg/esec"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "check":
		return runCheck(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "batch":
		return runBatch(ctx, args[1:])
	case "grammar":
		return runGrammar(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "operators":
		return runOperators(ctx, args[1:])
	case "landscapes":
		return runLandscapes(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: esecctl <check|run|batch|grammar|runs|fitness|best|export|operators|landscapes> [flags]", msg)
}

type runFlags struct {
	definition  *string
	landscape   *string
	grammarPath *string
	configPath  *string
	overrides   setFlags
	seed        *int64
	lseed       *int64
	generations *int
	verbose     *bool
}

func addRunFlags(fs *flag.FlagSet) *runFlags {
	rf := &runFlags{
		definition:  fs.String("definition", "", "pipeline definition file"),
		landscape:   fs.String("landscape", "", "landscape name"),
		grammarPath: fs.String("grammar", "", "YAML grammar file (GE landscapes)"),
		configPath:  fs.String("config", "", "YAML configuration file"),
		overrides:   make(setFlags),
		seed:        fs.Int64("seed", 0, "breeding stream seed (0 uses the default)"),
		lseed:       fs.Int64("landscape-seed", 0, "landscape stream seed (0 uses the default)"),
		generations: fs.Int("gens", 10, "generation limit (0 runs unbounded)"),
		verbose:     fs.Bool("v", false, "verbose logging"),
	}
	fs.Var(rf.overrides, "set", "override a configuration key (key=value, repeatable)")
	return rf
}

func (rf *runFlags) request() (esecapi.RunRequest, error) {
	definition, err := loadDefinition(*rf.definition)
	if err != nil {
		return esecapi.RunRequest{}, err
	}
	rules, err := loadGrammar(*rf.grammarPath)
	if err != nil {
		return esecapi.RunRequest{}, err
	}
	req := esecapi.RunRequest{
		Definition:    definition,
		Landscape:     *rf.landscape,
		Grammar:       rules,
		Overrides:     rf.overrides,
		Seed:          *rf.seed,
		LandscapeSeed: *rf.lseed,
		Generations:   *rf.generations,
	}
	if *rf.configPath != "" {
		req.ConfigFiles = []string{*rf.configPath}
	}
	return req, nil
}

func (rf *runFlags) context(ctx context.Context) context.Context {
	level := slog.LevelWarn
	if *rf.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return ctxlog.WithLogger(ctx, logger)
}

func runCheck(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	rf := addRunFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := rf.request()
	if err != nil {
		return err
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Check(req); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	rf := addRunFlags(fs)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "esec.db", "sqlite database path")
	csvPath := fs.String("csv", "", "write per-generation stats to a CSV file")
	quiet := fs.Bool("q", false, "suppress the per-generation console table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := rf.request()
	if err != nil {
		return err
	}
	if !*quiet {
		req.ConsoleOutput = os.Stdout
	}
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		req.CSVOutput = f
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(rf.context(ctx), req)
	if err != nil {
		return err
	}
	fmt.Printf("run=%s generations=%d evaluations=%d best=%g\n",
		summary.RunID, summary.Generations, summary.Evaluations, summary.BestFitness)
	return nil
}

func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	rf := addRunFlags(fs)
	repeats := fs.Int("repeats", 10, "independently seeded repeats")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "esec.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := rf.request()
	if err != nil {
		return err
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	items, err := client.Batch(rf.context(ctx), req, *repeats)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tRUN\tGENS\tEVALS\tBEST\tERROR")
	for _, item := range items {
		errText := ""
		if item.Err != nil {
			errText = item.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%g\t%s\n",
			item.Offset, item.Summary.RunID, item.Summary.Generations,
			item.Summary.Evaluations, item.Summary.BestFitness, errText)
	}
	return tw.Flush()
}

func runGrammar(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("grammar", flag.ContinueOnError)
	grammarPath := fs.String("grammar", "", "YAML grammar file")
	genomeRaw := fs.String("genome", "", "comma-separated codons, e.g. 3,1,4,1,5")
	terminalsRaw := fs.String("terminals", "x", "comma-separated terminal symbols")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rules, err := loadGrammar(*grammarPath)
	if err != nil {
		return err
	}
	if rules == nil {
		return fmt.Errorf("a grammar file is required (-grammar)")
	}
	genome, err := parseGenome(*genomeRaw)
	if err != nil {
		return err
	}
	terminals := strings.Split(*terminalsRaw, ",")

	client, err := esecapi.New(esecapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer client.Close()

	text, err := client.Expand(rules, genome, terminals)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "esec.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLANDSCAPE\tSEED\tGENS\tEVALS\tBEST\tERROR")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%g\t%s\n",
			run.ID, run.Landscape, run.BreedingSeed, run.Generations,
			run.Evaluations, run.BestFitness, run.Error)
	}
	return tw.Flush()
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "esec.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	stats, err := client.Fitness(ctx, *runID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GEN\tGROUP\tSIZE\tBEST\tMEAN\tSTDDEV\tEVALS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%g\t%g\t%g\t%d\n",
			s.Generation, s.Group, s.Size, s.BestFitness, s.MeanFitness, s.StddevFit, s.Evaluations)
	}
	return tw.Flush()
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "esec.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	best, err := client.Best(ctx, *runID)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	outPath := fs.String("out", "", "output JSON path (default <run-id>.json)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "esec.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("a run id is required (-run-id)")
	}
	if *outPath == "" {
		*outPath = *runID + ".json"
	}

	client, err := esecapi.New(esecapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	export := struct {
		Run     any `json:"run"`
		Fitness any `json:"fitness"`
		Best    any `json:"best,omitempty"`
	}{}

	runs, err := client.Runs(ctx, 0)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if run.ID == *runID {
			export.Run = run
			break
		}
	}
	if export.Run == nil {
		return fmt.Errorf("run not found: %s", *runID)
	}
	stats, err := client.Fitness(ctx, *runID)
	if err != nil {
		return err
	}
	export.Fitness = stats
	if best, err := client.Best(ctx, *runID); err == nil {
		export.Best = best
	}

	payload, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported run=%s to %s\n", *runID, *outPath)
	return nil
}

func runOperators(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("operators", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := esecapi.New(esecapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := client.Operators()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runLandscapes(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("landscapes", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := esecapi.New(esecapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := client.Landscapes()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
