package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hpgo/household-planner/internal/calculation"
	"github.com/hpgo/household-planner/internal/config"
	"github.com/hpgo/household-planner/internal/domain"
	"github.com/hpgo/household-planner/internal/output"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "hpgo %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Path)
			}
		},
	}
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

const defaultOverridesFile = "assumptions.toml"

// overridesPath returns the assumptions file to layer over the plan: the
// explicit flag value, or the default file when it exists next to the
// working directory. Empty means no overrides.
func overridesPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if fileExists(defaultOverridesFile) {
		return defaultOverridesFile
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "hpgo",
	Short: "Household finance projection CLI",
	Long:  "Year-by-year projection of household income, expenses, debts and savings",
}

var projectCmd = &cobra.Command{
	Use:   "project [plan-file]",
	Short: "Project household finances year by year",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		planFile := args[0]

		parser := config.NewInputParser()
		overridesFlag, _ := cmd.Flags().GetString("overrides")

		var plan *domain.Plan
		var err error

		// Always announce which assumptions file was layered in, so an
		// auto-detected assumptions.toml never changes a projection silently.
		if path := overridesPath(overridesFlag); path != "" {
			fmt.Fprintf(os.Stderr, "Applying assumptions from: %s\n", path)
			plan, err = parser.LoadFromFileWithOverrides(planFile, path)
		} else {
			plan, err = parser.LoadFromFile(planFile)
		}
		if err != nil {
			log.Fatal(err)
		}

		engine := calculation.NewEngine()
		debugMode, _ := cmd.Flags().GetBool("debug")
		verbose, _ := cmd.Flags().GetBool("verbose")
		if debugMode || verbose {
			engine.SetLogger(simpleCLILogger{})
		}

		result, err := engine.Project(cmd.Context(), &plan.Settings, plan.Accounts)
		if err != nil {
			if domain.IsConfigurationError(err) {
				log.Fatalf("configuration error: %v", err)
			}
			log.Fatal(err)
		}

		outputFormat, _ := cmd.Flags().GetString("format")
		rendered, err := renderResult(result, outputFormat)
		if err != nil {
			log.Fatal(err)
		}

		// The table formatter prints warnings itself; for machine formats
		// surface them on stderr so they are never silently dropped.
		if f := strings.ToLower(outputFormat); f == "csv" || f == "json" {
			for _, w := range result.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s %d [%s] %s\n", w.AccountID, w.Year, w.Code, w.Message)
			}
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(rendered), 0o644); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Wrote projection to %s\n", outputFile)
			return
		}
		fmt.Print(rendered)
	},
}

func renderResult(result *domain.ProjectionResult, format string) (string, error) {
	switch strings.ToLower(format) {
	case "csv":
		formatter := &output.CSVFormatter{}
		return formatter.Format(result)
	case "json":
		formatter := &output.JSONFormatter{Pretty: true}
		return formatter.Format(result)
	case "table", "console", "":
		formatter := &output.TableFormatter{}
		return formatter.Format(result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s (valid: table, csv, json)", format)
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate [plan-file]",
	Short: "Validate a plan file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		planFile := args[0]

		parser := config.NewInputParser()
		if _, err := parser.LoadFromFile(planFile); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Plan file %s is valid\n", planFile)
	},
}

func init() {
	projectCmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json)")
	projectCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	projectCmd.Flags().String("overrides", "", "Path to a TOML assumptions file (default: assumptions.toml if it exists)")
	projectCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	projectCmd.Flags().Bool("debug", false, "Enable debug output for detailed calculations")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
