package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "vulnsift"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "VULNSIFT"

	incrementalFlagName = "incremental"
	forceFullFlagName   = "force-full"
	verifyFlagName      = "verify"
	workersFlagName     = "workers"
	formatFlagName      = "format"
	outputFlagName      = "output"
	excludeFlagName     = "exclude"
	noGitignoreFlagName = "no-gitignore"
	noHistoryFlagName   = "no-history"
	providerFlagName    = "provider"
	modelFlagName       = "model"
	urlFlagName         = "url"
	limitFlagName       = "limit"
	addrFlagName        = "addr"
	debounceFlagName    = "debounce"
	verboseFlagName     = "verbose"
	logFileFlagName     = "log-file"

	scanWorkersKey     = "scan.workers"
	scanTimeoutKey     = "scan.timeout"
	scanIncrementalKey = "scan.incremental"
	scanVerifyKey      = "scan.verify"
	scanCacheFileKey   = "scan.cache_file"

	excludeConfigKey   = "paths.exclude"
	gitignoreConfigKey = "paths.gitignore"

	inferenceProviderKey    = "inference.provider"
	inferenceURLKey         = "inference.url"
	inferenceModelKey       = "inference.model"
	inferenceTemperatureKey = "inference.temperature"
	inferenceMaxTokensKey   = "inference.max_tokens"
	inferenceAPIKeyKey      = "inference.api_key"
	inferenceDeploymentKey  = "inference.deployment"

	storePathKey     = "store.path"
	serveAddrKey     = "serve.addr"
	watchDebounceKey = "watch.debounce"

	providerOllama = "ollama"
	providerAzure  = "azure"

	defaultIncremental   = false
	defaultVerify        = false
	defaultGitignore     = true
	defaultProvider      = providerOllama
	defaultServeAddr     = ":8080"
	defaultWatchDebounce = 500 * time.Millisecond
	defaultHistoryLimit  = 20

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".vulnsift.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

// configLoadErr is logged once the logger is configured.
var configLoadErr error

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()

	configLoadErr = readConfig()
}

// readConfig loads vulnsift.yaml when present. A missing file is not an error.
func readConfig() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("read config %s: %w", configFileName, err)
}

func setConfigDefaults() {
	validation := domain.DefaultValidationConfig()

	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(scanWorkersKey, validation.Workers)
	viper.SetDefault(scanTimeoutKey, validation.Timeout)
	viper.SetDefault(scanIncrementalKey, defaultIncremental)
	viper.SetDefault(scanVerifyKey, defaultVerify)
	viper.SetDefault(scanCacheFileKey, adapter.DefaultCacheFileName)

	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(gitignoreConfigKey, defaultGitignore)

	viper.SetDefault(inferenceProviderKey, defaultProvider)
	viper.SetDefault(inferenceURLKey, adapter.DefaultOllamaURL)
	viper.SetDefault(inferenceModelKey, validation.Model)
	viper.SetDefault(inferenceTemperatureKey, validation.Temperature)
	viper.SetDefault(inferenceMaxTokensKey, validation.MaxTokens)
	viper.SetDefault(inferenceAPIKeyKey, "")
	viper.SetDefault(inferenceDeploymentKey, "")

	viper.SetDefault(storePathKey, adapter.DefaultStorePath)
	viper.SetDefault(serveAddrKey, defaultServeAddr)
	viper.SetDefault(watchDebounceKey, defaultWatchDebounce)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// validationConfigFromViper reads the pool and generation settings.
func validationConfigFromViper() domain.ValidationConfig {
	return domain.ValidationConfig{
		Workers:     viper.GetInt(scanWorkersKey),
		Timeout:     viper.GetDuration(scanTimeoutKey),
		Model:       viper.GetString(inferenceModelKey),
		Temperature: viper.GetFloat64(inferenceTemperatureKey),
		MaxTokens:   viper.GetInt(inferenceMaxTokensKey),
	}
}

func discoverOptionsFromViper() adapter.DiscoverOptions {
	return adapter.DiscoverOptions{
		ExcludeDirs:  viper.GetStringSlice(excludeConfigKey),
		UseGitignore: viper.GetBool(gitignoreConfigKey),
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger sends the global slog logger to a rotated log file.
//
// It logs at the configured level, or at Debug when verbose is set.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose || viper.GetBool(logVerboseKey) {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
