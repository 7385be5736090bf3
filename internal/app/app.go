package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"dhis2-tool/internal/config"
	"dhis2-tool/internal/format"
	"dhis2-tool/internal/logging"
)

// Sentinel errors for the application layer.
var (
	ErrUsage       = errors.New("usage error")
	ErrMissingArgs = errors.New("missing required arguments")
)

// defaultSettingsFile is consulted when no -config flag is given; its absence
// is not an error.
const defaultSettingsFile = "dhis2-tool.yaml"

// Job captures one invocation's fetch parameters.
type Job struct {
	GroupIDs  string
	GroupDesc string
	Raw       bool
}

// --- Interfaces for Testability ---

// settingsLoader defines the interface for loading the tool settings file.
type settingsLoader interface {
	Load(filename string) (*config.Settings, error)
}

// credentialsResolver defines the interface for resolving credentials.
type credentialsResolver interface {
	Resolve(o config.Overrides) (*config.Credentials, error)
}

// pipeline defines the interface for running the fetch pipeline.
type pipeline interface {
	Run(ctx context.Context, job Job) ([]*format.Row, error)
}

// pipelineFactory defines the interface for building a pipeline from
// resolved credentials.
type pipelineFactory interface {
	New(creds *config.Credentials, httpCfg config.HTTPSettings) (pipeline, error)
}

// --- Default Implementations ---

type defaultSettingsLoader struct{}

func (l *defaultSettingsLoader) Load(filename string) (*config.Settings, error) {
	return config.LoadSettings(filename)
}

type defaultCredentialsResolver struct{}

func (r *defaultCredentialsResolver) Resolve(o config.Overrides) (*config.Credentials, error) {
	return config.ResolveCredentials(o)
}

// --- Runner ---

// Runner encapsulates the application's execution logic and dependencies.
type Runner struct {
	settingsLoader  settingsLoader
	credsResolver   credentialsResolver
	pipelineFactory pipelineFactory
	stdout          io.Writer
}

// RunnerOpts allows configuring the Runner's dependencies.
type RunnerOpts struct {
	SettingsLoader  settingsLoader
	CredsResolver   credentialsResolver
	PipelineFactory pipelineFactory
	Stdout          io.Writer
}

// NewRunner creates a runner with default dependencies.
func NewRunner() *Runner {
	return NewRunnerWithOpts(RunnerOpts{})
}

// NewRunnerWithOpts creates a Runner allowing dependency injection.
func NewRunnerWithOpts(opts RunnerOpts) *Runner {
	loader := opts.SettingsLoader
	if loader == nil {
		loader = &defaultSettingsLoader{}
	}
	resolver := opts.CredsResolver
	if resolver == nil {
		resolver = &defaultCredentialsResolver{}
	}
	factory := opts.PipelineFactory
	if factory == nil {
		factory = &defaultPipelineFactory{}
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Runner{
		settingsLoader:  loader,
		credsResolver:   resolver,
		pipelineFactory: factory,
		stdout:          stdout,
	}
}

// usageText defines the command-line help information.
const usageText = `Usage:
  dhis2-tool [options]

Options:
  -config string
        Optional YAML settings file (default "dhis2-tool.yaml" when present)
  -country string
        Country key to look up in the params file named by DHIS2_PARAMS_FILE
  -base_url string
        Base URL of the DHIS2 system (overrides the params file entry)
  -auth_token string
        Bearer token; overrides country credentials (env: DHIS2_AUTH_TOKEN)
  -group_ids string
        Comma-separated indicator group ids to fetch
  -group_desc string
        Description matched case-insensitively against group display names
  -output string
        Output file path (stdout when empty)
  -format string
        Output format, csv or json (default csv, or json for .json paths)
  -raw
        Emit raw indicator fields instead of described rows
  -loglevel string
        Logging level (none, error, warn, info, debug) (default "info")
  -help
        Show help

Examples:
  dhis2-tool -country=drc -group_desc="Paludisme" -output=paludisme.csv
  dhis2-tool -auth_token=$TOKEN -base_url=hmis.example.org -group_ids=Uvn6LCg7dVU -format=json
`

// Usage prints the command-line help information to the specified writer.
func (a *Runner) Usage(writer io.Writer) {
	fmt.Fprint(writer, usageText)
}

// Run parses command-line arguments and executes the fetch pipeline.
func (a *Runner) Run(args []string) error {
	fs := flag.NewFlagSet("dhis2-tool", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Prevent flagset from printing errors/usage

	configFile := fs.String("config", "", "Optional YAML settings file")
	country := fs.String("country", "", "Country key in the params file")
	baseURL := fs.String("base_url", "", "Base URL of the DHIS2 system")
	authToken := fs.String("auth_token", "", "Bearer token")
	groupIDs := fs.String("group_ids", "", "Comma-separated group ids")
	groupDesc := fs.String("group_desc", "", "Group description to match")
	outputPath := fs.String("output", "", "Output file path")
	formatFlag := fs.String("format", "", "Output format (csv or json)")
	rawFlag := fs.Bool("raw", false, "Emit raw indicator fields")
	logLevelStr := fs.String("loglevel", "info", "Logging level")
	helpFlag := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			a.Usage(os.Stderr)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if *helpFlag || len(args) == 0 {
		a.Usage(os.Stderr)
		return nil
	}

	logLevel := logging.SetupLogging(*logLevelStr)

	settings, err := a.loadSettings(*configFile)
	if err != nil {
		return err
	}

	// Config file log level applies only when the flag was left at default.
	if !isFlagSet(fs, "loglevel") && settings.Logging.Level != "" {
		logLevel = logging.SetupLogging(settings.Logging.Level)
	}
	logging.SetLevel(logLevel)

	if *groupIDs == "" && *groupDesc == "" {
		logging.Logf(logging.Error, "Error: one of -group_ids or -group_desc is required.")
		return ErrMissingArgs
	}

	effectiveOutput := *outputPath
	if effectiveOutput == "" {
		effectiveOutput = settings.Output.File
	}
	effectiveFormat := *formatFlag
	if effectiveFormat == "" {
		effectiveFormat = settings.Output.Format
	}
	outputFormat, err := format.Detect(effectiveFormat, effectiveOutput)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	creds, err := a.credsResolver.Resolve(config.Overrides{
		Country:   *country,
		BaseURL:   *baseURL,
		AuthToken: *authToken,
	})
	if err != nil {
		return err
	}
	logging.Logf(logging.Info, "Resolved %s auth for %s", creds.Mode, creds.BaseURL)

	p, err := a.pipelineFactory.New(creds, settings.HTTP)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	rows, err := p.Run(context.Background(), Job{
		GroupIDs:  *groupIDs,
		GroupDesc: *groupDesc,
		Raw:       *rawFlag,
	})
	if err != nil {
		return err
	}
	logging.Logf(logging.Info, "Fetched %d rows", len(rows))

	return a.emit(rows, outputFormat, effectiveOutput)
}

// loadSettings loads the named settings file, or the default file when
// present, or built-in defaults.
func (a *Runner) loadSettings(configFile string) (*config.Settings, error) {
	if configFile != "" {
		return a.settingsLoader.Load(configFile)
	}
	if _, err := os.Stat(defaultSettingsFile); err == nil {
		return a.settingsLoader.Load(defaultSettingsFile)
	}
	return config.DefaultSettings(), nil
}

// emit writes the rows to stdout or, when a path is given, to the file,
// fully overwriting it.
func (a *Runner) emit(rows []*format.Row, outputFormat, outputPath string) error {
	if outputPath == "" {
		return format.Write(a.stdout, rows, outputFormat)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", outputPath, err)
	}
	defer f.Close()
	if err := format.Write(f, rows, outputFormat); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish writing '%s': %w", outputPath, err)
	}
	logging.Logf(logging.Info, "Wrote %s output to %s", outputFormat, outputPath)
	return nil
}

// Helper to check if a specific flag was set
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
