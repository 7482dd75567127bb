package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signgate",
		Short: "Authentication gateway and proxy for eformsign",
		Long: `signgate fronts the eformsign e-signature service for browser clients.

It authenticates members with its own session tokens, brokers short-lived
provider credentials per request, and translates a clean REST surface into
eformsign API calls so the company API key and secret never leave the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./signgate.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMemberCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("signgate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.signgate")
	}

	viper.SetEnvPrefix("SIGNGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}
