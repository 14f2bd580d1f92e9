package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kvasir-auth/kvasir/src/common/cli"
	"github.com/kvasir-auth/kvasir/src/common/logs"
	"github.com/kvasir-auth/kvasir/src/common/version"
	"github.com/kvasir-auth/kvasir/src/kvasir/auth"
	"github.com/kvasir-auth/kvasir/src/kvasir/db"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// Configuration file path
	cfgFile string

	// Output format (table or json)
	outputFormat string

	logger   *logs.Logger
	database *db.Database
)

// Linker variables - set via ldflags at build time
var (
	Version        = "dev"
	ReleaseVersion = "0.0.0"
	BuildDate      = "unknown"
	GitCommit      = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kvasirctl",
	Short: "Kvasir credential store admin tool",
	Long: `kvasirctl administers a local kvasir credential store.

It operates directly on the store file to bootstrap and inspect
user accounts, roles, and role grants.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return initRuntime()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if database != nil {
			_ = database.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.ReleaseVersion = ReleaseVersion
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "~/.config/kvasir/kvasirctl.yaml")

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json")
	rootCmd.PersistentFlags().StringP("database", "d", "", "Credential store file path")

	cli.RegisterLogFlags(rootCmd)

	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("database"))

	viper.SetDefault("database.path", db.DefaultConfig().Path)
	viper.SetDefault("auth.hash_cost", auth.DefaultHashCost)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(roleCmd)
}

// initRuntime loads configuration, wires logging, and opens the store
func initRuntime() error {
	opts := cli.DefaultConfigOptions("kvasirctl", "KVASIR")
	opts.ConfigFile = cfgFile
	if err := cli.InitConfig(opts); err != nil {
		return err
	}

	logger = cli.InitLogger("kvasirctl")
	auth.SetLogger(logger)

	d, err := db.New(db.Config{Path: viper.GetString("database.path")})
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	database = d
	return nil
}

func userManager() *auth.UserManager {
	m := auth.NewUserManager(database)
	m.SetHashCost(viper.GetInt("auth.hash_cost"))
	return m
}

func roleManager() *auth.RoleManager {
	return auth.NewRoleManager(database)
}

func jsonOutput() bool {
	return outputFormat == "json"
}
