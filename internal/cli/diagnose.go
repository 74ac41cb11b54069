// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// diagnose.go - Health checks for saransh and its backend.
//
// Command: diagnose
// Aliases: doctor
//
// Health Checks Performed:
//   1. Config Valid       - Config file loads and validates
//   2. Composer Limits    - Image cap, image policy and snippet markers
//   3. Backend Reachable  - /ready answers
//   4. Models Loaded      - /ready reports loaded
//   5. Backend Diagnose   - /diagnose payload (printed below the checks)
//   6. History Writable   - Turn history database opens
//   7. Log Writable       - Log directory accepts files
//   8. Clipboard          - System clipboard is reachable (optional)
//
// Exit Codes:
//   0   No check failed (warnings allowed)
//   1   One or more checks failed
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/saransh-tui/internal/clipboard"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the JSON form of the status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// HealthCheck is a single check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

// Render formats the check for the terminal.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s%s", RenderStatus(c.Status.String()), RenderLabel(c.Name), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("       -> "+c.Fix)
	}
	return result
}

// Report is the result of a diagnose run.
type Report struct {
	Checks  []*HealthCheck
	Backend summarizer.Diagnostics
}

// Counts returns the number of passed, warned and failed checks.
func (r *Report) Counts() (passed, warned, failed int) {
	for _, c := range r.Checks {
		switch c.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}
	return passed, warned, failed
}

// Data converts the report to its JSON payload.
func (r *Report) Data() DiagnoseData {
	passed, warned, failed := r.Counts()
	d := DiagnoseData{
		Backend: r.Backend,
		Passed:  passed,
		Warned:  warned,
		Failed:  failed,
		Healthy: failed == 0,
	}
	for _, c := range r.Checks {
		d.Checks = append(d.Checks, DiagnoseCheck{
			Name:    c.Name,
			Status:  c.Status.String(),
			Message: c.Message,
			Fix:     c.Fix,
		})
	}
	return d
}

// =============================================================================
// HANDLE DIAGNOSE
// =============================================================================

// HandleDiagnose handles the "diagnose" command.
func HandleDiagnose(args Args) error {
	cfg, loadErr := LoadConfig(args)
	if loadErr != nil {
		cfg = config.Default()
		if err := ApplyOverrides(cfg, args); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	report := RunChecks(ctx, cfg, loadErr, NewClient(cfg), clipboard.NewSystem())
	_, _, failed := report.Counts()

	if args.JSON {
		if err := NewJSONResponse("diagnose", report.Data()).Print(); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// RunChecks runs every health check. clip may be nil.
func RunChecks(ctx context.Context, cfg *config.Config, loadErr error, client *summarizer.Client, clip clipboard.Clipboard) *Report {
	r := &Report{}
	r.Checks = append(r.Checks, checkConfigValid(loadErr), checkComposerLimits(cfg))

	reach, ready := checkBackendReachable(ctx, client)
	r.Checks = append(r.Checks, reach)
	if reach.Status != CheckFail {
		r.Checks = append(r.Checks, checkModelsLoaded(ready))
		diag, check := checkBackendDiagnose(ctx, client)
		r.Backend = diag
		r.Checks = append(r.Checks, check)
	}

	r.Checks = append(r.Checks, checkHistoryWritable(ctx, cfg), checkLogWritable(cfg), checkClipboard(clip))
	return r
}

func printReport(r *Report) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("saransh diagnose"))
	fmt.Println(RenderSeparator())
	fmt.Println()
	for _, c := range r.Checks {
		fmt.Println(c.Render())
	}

	if len(r.Backend) > 0 {
		fmt.Println()
		fmt.Println(SectionStyle.Render("Backend"))
		for _, k := range r.Backend.Keys() {
			fmt.Printf("  %s%v\n", RenderLabel(k+":"), r.Backend[k])
		}
	}

	passed, warned, failed := r.Counts()
	parts := []string{fmt.Sprintf("%d passed", passed)}
	if warned > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Println()
	fmt.Println(RenderSeparator())
	fmt.Println(DimStyle.Render(strings.Join(parts, ", ")))
	fmt.Println()
}

// =============================================================================
// CHECKS
// =============================================================================

func checkConfigValid(loadErr error) *HealthCheck {
	check := &HealthCheck{Name: "Config"}
	path, _ := config.Path()
	if loadErr != nil {
		check.Status = CheckFail
		check.Message = loadErr.Error()
		check.Fix = "saransh config reset --yes"
		return check
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		check.Status = CheckPass
		check.Message = "defaults (no config file)"
		return check
	}
	check.Status = CheckPass
	check.Message = path
	return check
}

func checkComposerLimits(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Composer"}
	limits := cfg.Limits()
	if err := limits.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "saransh config set composer.max_images 4"
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("images %s, up to %d per message, %d rows", limits.ImagePolicy, limits.MaxImages, limits.MaxRows)
	return check
}

func checkBackendReachable(ctx context.Context, client *summarizer.Client) (*HealthCheck, bool) {
	check := &HealthCheck{Name: "Backend"}
	probe, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	ready, err := client.CheckReady(probe)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		if summarizer.IsNotRunning(err) {
			check.Fix = "start it: uvicorn backend.app:app --port 8000, or set backend.url"
		}
		return check, false
	}
	check.Status = CheckPass
	check.Message = client.BaseURL()
	return check, ready
}

func checkModelsLoaded(ready bool) *HealthCheck {
	if ready {
		return &HealthCheck{Name: "Models", Status: CheckPass, Message: "loaded"}
	}
	return &HealthCheck{
		Name:    "Models",
		Status:  CheckWarn,
		Message: "not loaded yet",
		Fix:     "saransh warmup --wait",
	}
}

func checkBackendDiagnose(ctx context.Context, client *summarizer.Client) (summarizer.Diagnostics, *HealthCheck) {
	check := &HealthCheck{Name: "Diagnose"}
	diag, err := client.Diagnose(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = err.Error()
		return nil, check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("%d fields reported", len(diag))
	return diag, check
}

func checkHistoryWritable(ctx context.Context, cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "History"}
	if !cfg.History.Enabled {
		check.Status = CheckPass
		check.Message = "disabled"
		return check
	}
	hist, err := OpenHistory(cfg)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "saransh config set history.path <writable path>"
		return check
	}
	defer hist.Close()

	n, err := hist.Count(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = err.Error()
		return check
	}
	path, _ := cfg.HistoryPath()
	check.Status = CheckPass
	check.Message = fmt.Sprintf("%d turns in %s", n, path)
	return check
}

func checkLogWritable(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Log"}
	path, err := cfg.LogPath()
	if err != nil {
		check.Status = CheckWarn
		check.Message = err.Error()
		return check
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		check.Status = CheckWarn
		check.Message = err.Error()
		check.Fix = "saransh config set logging.path <writable path>"
		return check
	}
	f, err := os.CreateTemp(dir, ".saransh-probe-*")
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("%s is not writable", dir)
		check.Fix = "saransh config set logging.path <writable path>"
		return check
	}
	f.Close()
	os.Remove(f.Name())

	check.Status = CheckPass
	check.Message = path
	return check
}

func checkClipboard(clip clipboard.Clipboard) *HealthCheck {
	check := &HealthCheck{Name: "Clipboard"}
	if clip == nil {
		check.Status = CheckWarn
		check.Message = "not configured"
		return check
	}
	if _, err := clip.ReadText(); errors.Is(err, clipboard.ErrUnavailable) {
		check.Status = CheckWarn
		check.Message = "unavailable; image paste disabled"
		check.Fix = "install xclip or wl-clipboard"
		return check
	}
	check.Status = CheckPass
	check.Message = "available"
	return check
}
