// Package cmd provides the root command and CLI setup for vulnsift.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/controller"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// workflow is built on first use, after flags and config are resolved.
// Tests replace it with a mock.
var workflow domain.Workflow

var (
	verboseFlag     bool
	logFileFlag     string
	excludePatterns []string
	noGitignoreFlag bool
	providerFlag    string
	modelFlag       string
	urlFlag         string
)

const rootLongDescription = `Vulnsift finds security vulnerabilities in source trees.

A fast static pre-filter flags suspicious files, a taint tracker follows
user input into dangerous sinks, and only flagged files are sent to a
language model for validation. Incremental scans reuse cached results for
files whose content has not changed.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "vulnsift",
		Short:        "Hybrid static and LLM vulnerability scanner",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)

			if configLoadErr != nil {
				slog.Warn("config file ignored", "error", configLoadErr)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", defaultLogVerbose, "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)

	flags.StringVar(&logFileFlag, logFileFlagName, defaultLogFilename, "log file path")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)

	flags.StringArrayVarP(&excludePatterns, excludeFlagName, "x", nil, "additional directory name to skip (can be repeated)")
	bindFlagToConfig(flags.Lookup(excludeFlagName), excludeConfigKey)

	flags.BoolVar(&noGitignoreFlag, noGitignoreFlagName, false, "do not honor the root .gitignore")

	flags.StringVar(&providerFlag, providerFlagName, defaultProvider, "inference provider (ollama or azure)")
	bindFlagToConfig(flags.Lookup(providerFlagName), inferenceProviderKey)

	flags.StringVar(&modelFlag, modelFlagName, domain.DefaultModel, "model name, or the deployment for azure")
	bindFlagToConfig(flags.Lookup(modelFlagName), inferenceModelKey)

	flags.StringVar(&urlFlag, urlFlagName, adapter.DefaultOllamaURL, "inference service base URL")
	bindFlagToConfig(flags.Lookup(urlFlagName), inferenceURLKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// flagOrConfigBool prefers a flag set on the command line over config and env.
// It serves flags that several commands share without binding one viper key twice.
func flagOrConfigBool(cmd *cobra.Command, name, key string) bool {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		if value, err := cmd.Flags().GetBool(name); err == nil {
			return value
		}
	}

	return viper.GetBool(key)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Interrupts cancel the command context so scans stop dispatching work.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// getWorkflow returns the test workflow when one is set, otherwise builds one
// for cmd. verify adds the verification pass to the scanner.
func getWorkflow(cmd *cobra.Command, verify bool) (domain.Workflow, error) {
	if workflow != nil {
		return workflow, nil
	}

	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout))

	client, err := newInferenceClient()
	if err != nil {
		return nil, err
	}

	fsAdapter := adapter.NewLocalSourceFSAdapter()
	cacheStore := newCacheStore(fsAdapter)
	scanner := newScanner(fsAdapter, cacheStore, client, ui, verify)

	return domain.NewWorkflow(fsAdapter, cacheStore, ui, scanner, openResultStore), nil
}

func newCacheStore(fsAdapter adapter.SourceFSAdapter) adapter.CacheStore {
	return adapter.NewCacheStore(fsAdapter, viper.GetString(scanCacheFileKey))
}

// newScanner assembles the pipeline around client. observer receives
// progress from both the scanner and the validation pool.
func newScanner(
	fsAdapter adapter.SourceFSAdapter,
	cacheStore adapter.CacheStore,
	client adapter.InferenceClient,
	observer domain.ScanObserver,
	verify bool,
) domain.Scanner {
	config := validationConfigFromViper()

	opts := []domain.ScannerOption{
		domain.WithObserver(observer),
		domain.WithDiscoverOptions(scanDiscoverOptions()),
	}

	if verify {
		opts = append(opts, domain.WithVerifier(domain.NewVerifier(client, config)))
	}

	return domain.NewScanner(
		fsAdapter,
		cacheStore,
		domain.NewStaticPreFilter(domain.DefaultCatalog()),
		domain.NewTaintTracker(adapter.NewTreeSitterPythonParser(), adapter.NewLocalGoFileAdapter()),
		domain.NewValidationPool(client, config, observer),
		opts...,
	)
}

func scanDiscoverOptions() adapter.DiscoverOptions {
	opts := discoverOptionsFromViper()
	if noGitignoreFlag {
		opts.UseGitignore = false
	}

	return opts
}

// newInferenceClient picks the backend named by inference.provider.
func newInferenceClient() (adapter.InferenceClient, error) {
	switch provider := strings.ToLower(viper.GetString(inferenceProviderKey)); provider {
	case providerOllama, "":
		return adapter.NewOllamaClient(viper.GetString(inferenceURLKey)), nil
	case providerAzure:
		deployment := viper.GetString(inferenceDeploymentKey)
		if deployment == "" {
			deployment = viper.GetString(inferenceModelKey)
		}

		client, err := adapter.NewAzureOpenAIClient(
			viper.GetString(inferenceURLKey),
			viper.GetString(inferenceAPIKeyKey),
			deployment,
		)
		if err != nil {
			return nil, err
		}

		return client, nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", provider)
	}
}

func openResultStore() (adapter.ResultStore, error) {
	store, err := adapter.NewSQLiteResultStore(viper.GetString(storePathKey))
	if err != nil {
		return nil, err
	}

	return store, nil
}

// rootArg returns the scan root from the optional positional argument.
func rootArg(args []string) m.Path {
	if len(args) == 0 {
		return "."
	}

	return m.Path(args[0])
}
