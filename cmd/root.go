package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/afb/internal/config"
	"github.com/zjrosen/afb/internal/log"
)

var (
	version  = "dev"
	cfgFile  string
	envFiles []string
	cfg      config.Config
)

var rootCmd = &cobra.Command{
	Use:   "afb",
	Short: "Build object graphs from declarative manifests",
	Long: `afb builds object graphs from YAML, JSON, TOML, HCL, CUE or CBOR manifests.

Each class has a registry of named construction units. A manifest names the
unit to call and its inputs, which may themselves be manifests of other
classes. Use registry:list and describe to discover units, and make to
build an object.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .afb/config.yaml, then ~/.config/afb/config.yaml)")
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil,
		"load environment variables from a dotenv file (repeatable)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "debug log file (default: afb.log)")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: loading env file: %v\n", err)
		}
	}

	defaults := config.Defaults()
	viper.SetDefault("docs.width", defaults.Docs.Width)
	viper.SetDefault("docs.style", defaults.Docs.Style)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	viper.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	viper.SetDefault("server.max_body_bytes", defaults.Server.MaxBodyBytes)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("plugins.sweep", defaults.Plugins.Sweep)

	viper.SetEnvPrefix("AFB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .afb/config.yaml (current directory)
		// 2. ~/.config/afb/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "afb"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Running without a config file is fine; a broken one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

const localConfigPath = ".afb/config.yaml"

// configPath is the file default:set writes to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

var logCleanup func()

func setup(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Debug {
		path := cfg.LogFile
		if path == "" {
			path = "afb.log"
		}
		cleanup, err := log.Init(path)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "Starting", "command", cmd.Name(), "config", viper.ConfigFileUsed())
	} else {
		log.SetEnabled(false)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
