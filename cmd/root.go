// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghostswarm/internal/config"
	"github.com/xkilldash9x/ghostswarm/internal/observability"
)

type contextKey string

// configKey is the context key holding the validated config.Interface.
const configKey contextKey = "config"

// configKeyAnnotation marks a flag with the viper key it overrides.
const configKeyAnnotation = "ghostswarm_config_key"

// envPrefix is the prefix for environment overrides, e.g. GHOSTSWARM_SIMULATION_AGENTS.
const envPrefix = "GHOSTSWARM"

// NewRootCommand builds a fresh command tree. Every call returns independent
// flag state.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCmd(NewStoreProvider())
	return cmd
}

// newRootCmd builds the command tree around provider. The returned pointer
// is filled with the loaded config once PersistentPreRunE has run.
func newRootCmd(provider storeProvider) (*cobra.Command, *config.Interface) {
	var cfgFile string
	loaded := new(config.Interface)

	root := &cobra.Command{
		Use:   "ghostswarm",
		Short: "Ghostswarm simulates decentralized majority decisions in an agent swarm.",
		Long: `Ghostswarm walks a population of agents over a coloured grid. Each agent
samples the cell it stands on, gossips with peers in range and decides which
colour is the majority.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "ghostswarm"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting ghostswarm", zap.String("version", Version))

			*loaded = cfg
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, config.Interface(cfg)))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or $HOME/.ghostswarm/config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newRunCmd(provider))
	root.AddCommand(newWatchCmd())
	root.AddCommand(newReportCmd(provider))
	root.AddCommand(newBudgetCmd())
	root.AddCommand(newVersionCmd())
	return root, loaded
}

// Execute runs the CLI with ctx. Failures are logged here; callers only map
// the error to an exit code.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file, environment and the flags of cmd
// into v.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ghostswarm"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys, ok := f.Annotations[configKeyAnnotation]
		if !ok || len(keys) == 0 || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(keys[0], f)
	})
	return bindErr
}

// bindFlag ties the flag name of cmd to a config key, so setting the flag
// overrides the file and environment. An unknown flag name is a programming
// error and panics while the command tree is built.
func bindFlag(cmd *cobra.Command, name, key string) {
	if err := cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("cannot bind flag %q of %q to %q: %v", name, cmd.Name(), key, err))
	}
}

// getConfigFromContext returns the config stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
