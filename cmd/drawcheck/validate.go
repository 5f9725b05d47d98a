package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"drawcheck/internal/analyzer"
	"drawcheck/internal/domain"
	"drawcheck/internal/orchestrator"
	"drawcheck/internal/platform/config"
	"drawcheck/internal/platform/logger"
	"drawcheck/internal/session"
	"drawcheck/internal/standards"
	"drawcheck/internal/validator"
)

var (
	validateChecks   []string
	validateFilter   string
	validateAsJSON   bool
	validateQuietLog = "error"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a single drawing locally",
	Long: `Validate runs the full pipeline against one file and prints the
report. The file is staged in a temporary directory and deleted when the
run finishes, exactly as the HTTP service would.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateChecks, "checks", nil,
		"check categories to run (gdt, welding, material, composite); default all")
	validateCmd.Flags().StringVar(&validateFilter, "severity-filter", "all",
		"issue floor for the printed report: all, warning+ or error+")
	validateCmd.Flags().BoolVar(&validateAsJSON, "json", false,
		"print the raw report JSON instead of the summary table")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.New(validateQuietLog)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var cats []domain.CheckCategory
	for _, c := range validateChecks {
		cat, err := domain.ParseCategory(c)
		if err != nil {
			return err
		}
		cats = append(cats, cat)
	}
	filter := domain.SeverityFilter(validateFilter)
	if !filter.Valid() {
		return fmt.Errorf("unknown severity filter %q", validateFilter)
	}

	store, err := standards.Load()
	if err != nil {
		return fmt.Errorf("load standards tables: %w", err)
	}

	dir, err := os.MkdirTemp("", "drawcheck-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	sessions, err := session.NewManager(dir, log)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	sess, err := sessions.Create(ctx, f)
	f.Close()
	if err != nil {
		return fmt.Errorf("stage %s: %w", args[0], err)
	}

	an, err := analyzer.New(sessions, log, analyzer.WithMinDensity(cfg.OCRMinDensity))
	if err != nil {
		return err
	}
	orch, err := orchestrator.New(an, validator.DefaultRegistry(), store, sessions, log,
		orchestrator.WithValidatorTimeout(cfg.ValidatorTimeout))
	if err != nil {
		return err
	}

	req := domain.NewValidationRequest(sess.DocumentRef, "cli", cats)
	report, err := orch.Run(ctx, req, nil)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	shaped := report.FilterIssues(filter)

	if validateAsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shaped)
	}
	renderReport(args[0], shaped)
	if report.Summary.Critical > 0 || report.Summary.Errors > 0 {
		os.Exit(1)
	}
	return nil
}

func renderReport(path string, report domain.ValidationReport) {
	statusColor := color.New(color.FgGreen, color.Bold)
	switch report.Status {
	case domain.StatusPartial:
		statusColor = color.New(color.FgYellow, color.Bold)
	case domain.StatusFailed:
		statusColor = color.New(color.FgRed, color.Bold)
	}

	fmt.Printf("%s  %s\n", statusColor.Sprintf("%-8s", report.Status), path)
	fmt.Printf("Pass rate: %.1f%% (%d/%d), standards %s, %d ms\n",
		report.PassRate, report.Summary.Passed, report.Summary.Total,
		report.StandardsVersion, report.DurationMs)
	fmt.Printf("Failures:  %s  %s  %s\n",
		color.New(color.FgRed, color.Bold).Sprintf("%d critical", report.Summary.Critical),
		color.RedString("%d error(s)", report.Summary.Errors),
		color.YellowString("%d warning(s)", report.Summary.Warnings),
	)

	if len(report.Issues) == 0 {
		fmt.Println(color.GreenString("No issues at the selected severity floor."))
		return
	}

	fmt.Println()
	for _, issue := range report.Issues {
		sev := color.YellowString("%-8s", issue.Severity)
		switch issue.Severity {
		case domain.SeverityError:
			sev = color.RedString("%-8s", issue.Severity)
		case domain.SeverityCritical:
			sev = color.New(color.FgRed, color.Bold).Sprintf("%-8s", issue.Severity)
		}
		line := fmt.Sprintf("%s %-14s %-10s %s", sev, issue.CheckID, issue.Category, issue.Message)
		if issue.Location != "" {
			line += fmt.Sprintf(" (%s)", issue.Location)
		}
		fmt.Println(line)
		if issue.Suggestion != "" {
			fmt.Printf("         ↳ %s\n", issue.Suggestion)
		}
	}
}
