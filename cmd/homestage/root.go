package cmd

import (
	"fmt"
	"os"
	"strings"

	// Subcommands
	dev "github.com/homestage-ai/staging-client/cmd/homestage/dev"
	history "github.com/homestage-ai/staging-client/cmd/homestage/history"
	login "github.com/homestage-ai/staging-client/cmd/homestage/login"
	restage "github.com/homestage-ai/staging-client/cmd/homestage/restage"
	stage "github.com/homestage-ai/staging-client/cmd/homestage/stage"
	"github.com/homestage-ai/staging-client/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "HOMESTAGE"

var Cmd = &cobra.Command{
	Use:   "homestage",
	Short: "Homestage CLI",
	Long:  "Stage real-estate photos with AI-generated furniture from the command line",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix(envPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`,
			`.`, `_`,
		))
		viper.AutomaticEnv()

		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		return config.LoadEnvAndConfigFiles()
	},
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("home-dir", "", "Path to the homestage home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")
	pflags.String("api-base-url", "", "Base URL of the staging API")

	viper.BindPFlag("home_dir", pflags.Lookup("home-dir"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))
	viper.BindPFlag("api_base_url", pflags.Lookup("api-base-url"))

	Cmd.AddCommand(stage.Cmd, restage.Cmd, history.Cmd, login.Cmd, login.LogoutCmd, dev.Cmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
