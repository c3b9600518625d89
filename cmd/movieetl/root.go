package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Rajesh82359/movie-data-pipeline/internal/app"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "movieetl",
	Short: "Load MovieLens movies and ratings into a relational database",
	Long: `movieetl imports movies.csv and ratings.csv into a SQL database.

Movies are optionally enriched with director, plot, box office and IMDb id
from the OMDb API. Lookups are cached in omdb_cache.json so reruns make no
repeated calls. Ratings are upserted in chunks; a later rating for the same
user and movie replaces the earlier one.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		noEnrich, _ := cmd.Flags().GetBool("no-enrich")
		recreate, _ := cmd.Flags().GetBool("recreate-ratings")

		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		return application.Run(context.Background(), app.RunOptions{
			Limit:           limit,
			NoEnrich:        noEnrich,
			RecreateRatings: recreate,
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().Int("limit", -1, "only process up to N movie rows (useful for testing)")
	rootCmd.Flags().Bool("no-enrich", false, "skip OMDb enrichment and only load the CSV files")
	rootCmd.Flags().Bool("recreate-ratings", false, "rename the existing ratings table to ratings_bad_<timestamp> and create a fresh one")
}

// initConfig loads .env and an optional config.yaml.
func initConfig() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
