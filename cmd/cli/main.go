package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/himanishpuri/NoteAlign/pkg/logger"
	"github.com/himanishpuri/NoteAlign/pkg/notealign"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/joho/godotenv"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// commonFlags are accepted by every command that touches the dataset or the
// run history.
type commonFlags struct {
	fs         *flag.FlagSet
	dbPath     string
	root       string
	configPath string
	workers    int
	weight     float64
	noTime     bool
	nonVoiced  string
}

func newCommonFlags(name string) *commonFlags {
	c := &commonFlags{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	c.fs.StringVar(&c.dbPath, "db", getEnvOrDefault("NOTEALIGN_DB_PATH", "notealign.sqlite3"), "Path to the SQLite run history")
	c.fs.StringVar(&c.root, "dataset", getEnvOrDefault("NOTEALIGN_DATASET", "."), "Dataset root directory")
	c.fs.StringVar(&c.configPath, "config", os.Getenv("NOTEALIGN_CONFIG"), "TOML configuration file")
	c.fs.IntVar(&c.workers, "workers", 0, "Parallel recordings (default: number of CPUs)")
	c.fs.Float64Var(&c.weight, "weight", 10, "Cost of a lyric mismatch")
	c.fs.BoolVar(&c.noTime, "no-time", false, "Ignore start-time distance in the cost")
	c.fs.StringVar(&c.nonVoiced, "non-voiced", "pau,br", "Comma-separated lyrics that always get note 0")
	return c
}

func (c *commonFlags) parse(args []string) []string {
	c.fs.Parse(args)
	return c.fs.Args()
}

// options layers defaults, the config file, environment and explicit flags,
// later ones winning.
func (c *commonFlags) options() ([]notealign.Option, error) {
	var opts []notealign.Option
	if c.configPath != "" {
		fileOpts, err := notealign.LoadConfigFile(c.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}

	set := map[string]bool{}
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	noFile := c.configPath == ""

	if set["db"] || noFile || os.Getenv("NOTEALIGN_DB_PATH") != "" {
		opts = append(opts, notealign.WithDBPath(c.dbPath))
	}
	if set["dataset"] || noFile || os.Getenv("NOTEALIGN_DATASET") != "" {
		opts = append(opts, notealign.WithDatasetRoot(c.root))
	}
	if set["workers"] {
		opts = append(opts, notealign.WithWorkers(c.workers))
	}
	if set["weight"] {
		opts = append(opts, notealign.WithLyricMismatchWeight(c.weight))
	}
	if set["no-time"] {
		opts = append(opts, notealign.WithTimeDistance(!c.noTime))
	}
	if set["non-voiced"] {
		opts = append(opts, notealign.WithNonVoiced(splitList(c.nonVoiced)...))
	}
	return opts, nil
}

func (c *commonFlags) config() *notealign.Config {
	opts, err := c.options()
	if err != nil {
		fail("Invalid configuration: %v", err)
	}
	return notealign.NewConfig(opts...)
}

func (c *commonFlags) layout() dataset.Layout {
	return c.config().Layout
}

// createService creates a new NoteAlign service with configured options
func (c *commonFlags) createService() (notealign.Service, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}
	return notealign.NewService(opts...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Printf("❌ %s\n", msg)
	logger.GetLogger().Errorf("%s", msg)
	os.Exit(1)
}

func main() {
	envErr := godotenv.Load()

	log := logger.GetLogger()
	if envErr != nil {
		log.Debugf("No .env file found, using system environment variables")
	} else {
		log.Debugf("Loaded environment variables from .env file")
	}

	if len(os.Args) < 2 {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "align":
		handleAlign(args)
	case "align-one":
		handleAlignOne(args)
	case "matrix":
		handleMatrix(args)
	case "convert":
		handleConvert(args)
	case "hifisinger":
		handleHiFiSinger(args)
	case "verify":
		handleVerify(args)
	case "render":
		handleRender(args)
	case "runs":
		handleRuns(args)
	case "show-run":
		handleShowRun(args)
	case "help", "-h", "--help":
		printBanner()
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _   _       _          _    _ _
| \ | | ___ | |_ ___   / \  | (_) __ _ _ __
|  \| |/ _ \| __/ _ \ / _ \ | | |/ _' | '_ \
| |\  | (_) | ||  __// ___ \| | | (_| | | | |
|_| \_|\___/ \__\___/_/   \_\_|_|\__, |_| |_|
                                 |___/
        Note Number Alignment for Singing Data
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("NoteAlign - transfer note numbers onto forced-alignment labels")
	fmt.Println("\nCommon Options (place before positional arguments):")
	fmt.Println("  --db <path>          SQLite run history (env: NOTEALIGN_DB_PATH, default: notealign.sqlite3)")
	fmt.Println("  --dataset <dir>      Dataset root (env: NOTEALIGN_DATASET, default: .)")
	fmt.Println("  --config <file>      TOML configuration (env: NOTEALIGN_CONFIG)")
	fmt.Println("  --workers <n>        Parallel recordings (default: number of CPUs)")
	fmt.Println("  --weight <w>         Lyric mismatch cost (default: 10)")
	fmt.Println("  --no-time            Ignore start-time distance")
	fmt.Println("  --non-voiced <list>  Lyrics forced to note 0 (default: pau,br)")
	fmt.Println("\nUsage:")
	fmt.Println("  notealign align [options] [--from 1 --to 50 | --all]")
	fmt.Println("  notealign align-one [options] <id>")
	fmt.Println("  notealign matrix [options] <id>")
	fmt.Println("  notealign convert <fullcontext.lab> <out.txt>")
	fmt.Println("  notealign hifisinger <fullcontext.lab> <out.tsv>")
	fmt.Println("  notealign verify [options] [--tolerance 1] <id>")
	fmt.Println("  notealign render [options] <id> <out.png>")
	fmt.Println("  notealign runs [options]")
	fmt.Println("  notealign show-run [options] <run-id>")
	fmt.Println("\nExamples:")
	fmt.Println("  # Align recordings 01..50 of a corpus")
	fmt.Println("  notealign align --dataset ./corpus --from 1 --to 50")
	fmt.Println()
	fmt.Println("  # Build note labels from the synthesis front end output")
	fmt.Println("  notealign convert corpus/mono_label_generated/01.lab corpus/mono_label_with_note/01.txt")
}
