package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/hieunv6/scavenger-miner/ashmaize"
)

const (
	defaultConfigFilename = "scavenger.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "scavenger.log"

	defaultBaseURL       = "https://scavenger.prod.gd.midnighttge.io"
	defaultMaxIterations = 100_000
	defaultPollInterval  = 30 * time.Second
)

var (
	defaultScavengerDir = scavengerDir()
	defaultConfigFile   = filepath.Join(defaultScavengerDir, defaultConfigFilename)
	defaultLogDir       = filepath.Join(defaultScavengerDir, defaultLogDirname)
)

// MinerConfig holds the search and work-memory parameters. The work-memory
// sizing and the loop/instruction counts must match the values the verifying
// server uses.
type MinerConfig struct {
	MaxIterations uint64 `long:"max-iterations" description:"Attempt budget per round"`
	Workers       int    `long:"workers"        description:"Number of search workers (0 for one per CPU)"`
	RomSize       uint64 `long:"rom-size"       description:"Work-memory size in bytes"`
	PreSize       uint64 `long:"pre-size"       description:"Pre-buffer size in bytes for the two-step rom expansion"`
	MixingNumbers uint   `long:"mixing-numbers" description:"Pre-buffer words mixed into each rom block"`
	NbLoops       uint32 `long:"loops"          description:"Digest loop count"`
	NbInstrs      uint32 `long:"instructions"   description:"Digest instructions per loop"`
}

// Config defines the configuration options for the scavenger miner.
//
// See loadConfig in scavenger.go for the loading+parsing process.
type Config struct {
	ScavengerDir string `long:"scavengerdir" description:"The base directory for logs and the configuration file"`
	ConfigFile   string `short:"c" long:"configfile" description:"Path to configuration file"`
	LogDir       string `long:"logdir" description:"Directory to log output"`
	DebugLog     bool   `long:"debuglog" description:"Enable debug logs"`
	JSONLog      bool   `long:"jsonlog" description:"Whether to log in JSON format"`

	BaseURL string `long:"baseurl" description:"Scavenger service URL"`
	Address string `short:"a" long:"address" description:"Wallet address rewards are credited to"`

	Register     bool          `long:"register" description:"Run the registration flow before mining"`
	Watch        bool          `long:"watch" description:"Keep polling for new challenges instead of mining a single round"`
	PollInterval time.Duration `long:"poll-interval" description:"Challenge poll interval in watch mode"`

	MetricsListen string `long:"metrics-listen" description:"Interface/port to expose prometheus metrics on (empty to disable)"`
	CPUProfile    string `long:"cpuprofile" description:"Write CPU profile to the specified file"`
	Profile       string `long:"profile" description:"Enable HTTP profiling on given port -- must be between 1024 and 65535"`

	Miner *MinerConfig `group:"Miner" namespace:"miner"`
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	return &Config{
		ScavengerDir: defaultScavengerDir,
		ConfigFile:   defaultConfigFile,
		LogDir:       defaultLogDir,
		BaseURL:      defaultBaseURL,
		PollInterval: defaultPollInterval,
		Miner: &MinerConfig{
			MaxIterations: defaultMaxIterations,
			RomSize:       ashmaize.DefaultRomSize,
			PreSize:       ashmaize.DefaultPreSize,
			MixingNumbers: ashmaize.DefaultMixingNumbers,
			NbLoops:       ashmaize.DefaultNbLoops,
			NbInstrs:      ashmaize.DefaultNbInstrs,
		},
	}
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	if _, err := flags.Parse(preCfg); err != nil {
		return nil, err
	}
	return preCfg, nil
}

// ReadConfigFile reads values from a conf file, overriding what is already
// set in preCfg. A missing file is not an error unless its path was set
// explicitly.
func ReadConfigFile(preCfg *Config) (*Config, error) {
	preCfg.ScavengerDir = cleanAndExpandPath(preCfg.ScavengerDir)
	preCfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
	explicit := preCfg.ConfigFile != defaultConfigFile
	if preCfg.ScavengerDir != defaultScavengerDir && !explicit {
		preCfg.ConfigFile = filepath.Join(preCfg.ScavengerDir, defaultConfigFilename)
	}

	if err := flags.IniParse(preCfg.ConfigFile, preCfg); err != nil {
		var iniError *flags.IniError
		if errors.As(err, &iniError) {
			return nil, err
		}
		if explicit {
			return nil, err
		}
		// The default config file is optional.
	}

	return preCfg, nil
}

// SetupConfig normalizes paths and initializes the filesystem layout.
func SetupConfig(cfg *Config) (*Config, error) {
	if cfg.ScavengerDir != defaultScavengerDir {
		cfg.LogDir = filepath.Join(cfg.ScavengerDir, defaultLogDirname)
	}

	if err := os.MkdirAll(cfg.ScavengerDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scavenger directory: %w", err)
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if cfg.Address == "" {
		return nil, errors.New("a wallet address is required (--address)")
	}

	return cfg, nil
}

// LogFile returns the log file path, or empty when file logging is disabled.
func (cfg *Config) LogFile() string {
	if cfg.LogDir == "" {
		return ""
	}
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

func scavengerDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scavenger"
	}
	return filepath.Join(home, ".scavenger")
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
