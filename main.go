package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	projectRoot string

	rootCmd = &cobra.Command{
		Use:          "neurothrive",
		Short:        "NeuroThrive backend: session gate, risk classification and screening API",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe, // Defined in serve.go
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate, // Defined in serve.go
	}

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Classify a risk score",
		RunE:  runClassify, // Defined in tools.go
	}

	routeCmd = &cobra.Command{
		Use:   "route",
		Short: "Show the guard decision for a browser route",
		RunE:  runRoute, // Defined in tools.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root containing config/config.yaml")

	classifyCmd.Flags().Float64("score", 0, "risk score")
	classifyCmd.Flags().String("unit", "fraction", "score unit: fraction or percent")
	_ = classifyCmd.MarkFlagRequired("score")

	routeCmd.Flags().String("path", "", "route path, e.g. /clinician/alerts")
	routeCmd.Flags().String("role", "", "session role; empty for a signed-out visitor")
	routeCmd.Flags().String("routes", "", "route table YAML (defaults to the built-in table)")
	_ = routeCmd.MarkFlagRequired("path")

	rootCmd.AddCommand(serveCmd, migrateCmd, classifyCmd, routeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
