package main

import (
	"encoding/json"
	"fmt"
	"math"

	"neurothrive/internal/auth"
	"neurothrive/internal/risk"

	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runClassify(cmd *cobra.Command, args []string) error {
	score, _ := cmd.Flags().GetFloat64("score")
	rawUnit, _ := cmd.Flags().GetString("unit")
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("score must be a finite number")
	}
	unit, err := risk.ParseUnit(rawUnit)
	if err != nil {
		return err
	}

	return printJSON(cmd, struct {
		Score    float64 `json:"score"`
		Unit     string  `json:"unit"`
		Fraction float64 `json:"fraction"`
		risk.Classification
	}{score, unit.String(), risk.ToFraction(score, unit), risk.Classify(score, unit)})
}

func runRoute(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	rawRole, _ := cmd.Flags().GetString("role")
	file, _ := cmd.Flags().GetString("routes")

	table, err := loadRouteTable(file)
	if err != nil {
		return err
	}

	gate := auth.Restore(auth.NewMemoryStore())
	if rawRole != "" {
		role, err := auth.ParseRole(rawRole)
		if err != nil {
			return err
		}
		if err := gate.Login(auth.SessionUser{Email: "cli@localhost", Role: role}); err != nil {
			return err
		}
	}

	return printJSON(cmd, struct {
		auth.Resolution
		Landing string `json:"landing"`
	}{table.Resolve(path, gate.Current()), gate.DefaultRoute()})
}
