package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "stapper"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	targetsFlagName = "config"
	rootFlagName    = "root"
	verboseFlagName = "verbose"
	removeFlagName  = "remove"
	patchFlagName   = "patch"
	outputFlagName  = "output"
	reportFlagName  = "report"

	sourceRootKey          = "source.root"
	probeMacroKey          = "probe.macro"
	probeMarkerKey         = "probe.marker"
	probeHeaderKey         = "probe.header"
	frontendCPPKey         = "frontend.cpp"
	frontendIncludeDirsKey = "frontend.include_dirs"
	frontendExtraArgsKey   = "frontend.extra_args"
	frontendLibcShimKey    = "frontend.libc_shim"
	matchExemptKey         = "match.exempt"
	patchOutputKey         = "patch.output"
	patchVCSKey            = "patch.vcs"
	patchCopyParallelKey   = "patch.copy_parallel"
	cacheSizeKey           = "cache.size"

	defaultSourceRoot        = ".."
	defaultCPP               = "cpp"
	defaultLibcShim          = true
	defaultPatchVCS          = vcsGit
	defaultPatchCopyParallel = 1

	vcsGit     = "git"
	vcsBuiltin = "builtin"

	envPrefix = "STAPPER"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".stapper.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := readConfigFile(); err != nil {
		slog.Warn("Ignoring unreadable config file", "path", viper.ConfigFileUsed(), "error", err)
	}
}

// readConfigFile loads stapper.yaml. A missing file is not an error.
func readConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(sourceRootKey, defaultSourceRoot)
	viper.SetDefault(probeMacroKey, "PROBE")
	viper.SetDefault(probeMarkerKey, "/* stapper: instrumented */")
	viper.SetDefault(probeHeaderKey, "stapper_probe.h")
	viper.SetDefault(frontendCPPKey, defaultCPP)
	viper.SetDefault(frontendIncludeDirsKey, []string{})
	viper.SetDefault(frontendExtraArgsKey, []string{"-nostdinc"})
	viper.SetDefault(frontendLibcShimKey, defaultLibcShim)
	viper.SetDefault(matchExemptKey, []string{"strerror_r", "basename"})
	viper.SetDefault(patchOutputKey, "stapper.patch")
	viper.SetDefault(patchVCSKey, defaultPatchVCS)
	viper.SetDefault(patchCopyParallelKey, defaultPatchCopyParallel)
	viper.SetDefault(cacheSizeKey, 1024)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
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

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
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
