package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"malpha/internal/config"
	"malpha/internal/instances"
	"malpha/internal/ui"
)

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Check configured mirrors for availability and open CORS",
	Args:  cobra.NoArgs,
	RunE:  instancesRun,
}

type instanceReport struct {
	Endpoint    string `json:"endpoint"`
	Online      bool   `json:"online"`
	Version     string `json:"version,omitempty"`
	AllowOrigin string `json:"allowOrigin,omitempty"`
	CORSOpen    bool   `json:"corsOpen"`
	LatencyMS   int64  `json:"latencyMs"`
	Error       string `json:"error,omitempty"`
}

func instancesRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient()
	if err != nil {
		return err
	}

	endpoints := directEndpoints(cfg.Strategies)
	if len(endpoints) == 0 {
		fmt.Println("No direct mirrors configured.")
		return nil
	}

	timeout, _ := cfg.AttemptTimeoutDuration()
	p := &instances.Prober{Client: client, Timeout: timeout}
	results := p.ProbeAll(ctx, endpoints)

	if flagJSON {
		return printJSON(lo.Map(results, func(r instances.Result, _ int) instanceReport {
			rep := instanceReport{
				Endpoint:    r.Endpoint,
				Online:      r.Online(),
				Version:     r.Version,
				AllowOrigin: r.AllowOrigin,
				CORSOpen:    r.CORSOpen(),
				LatencyMS:   r.Latency.Milliseconds(),
			}
			if r.Err != nil {
				rep.Error = r.Err.Error()
			}
			return rep
		}))
	}

	width := lo.Max(lo.Map(endpoints, func(e string, _ int) int { return len(e) }))
	endpointCol := lipgloss.NewStyle().Width(width + 2)
	statusCol := lipgloss.NewStyle().Width(18)
	corsCol := lipgloss.NewStyle().Width(30)
	for _, r := range results {
		status := ui.Status(false, "offline")
		if r.Online() {
			status = ui.Status(true, "v"+r.Version)
		}
		cors := ui.Status(true, "cors "+r.AllowOrigin)
		if !r.CORSOpen() {
			cors = ui.Warn("cors " + lo.Ternary(r.AllowOrigin != "", r.AllowOrigin, "closed"))
		}
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			endpointCol.Render(r.Endpoint),
			statusCol.Render(status),
			corsCol.Render(cors),
			r.Latency.Round(time.Millisecond).String(),
		))
		if r.Err != nil {
			logger.WithError(r.Err).WithField("endpoint", r.Endpoint).Debug("probe failed")
		}
	}
	return nil
}

// directEndpoints lists the unique endpoints of direct strategies in order.
func directEndpoints(strategies []config.Strategy) []string {
	direct := lo.Filter(strategies, func(s config.Strategy, _ int) bool { return s.Mode == "direct" })
	return lo.Uniq(lo.FlatMap(direct, func(s config.Strategy, _ int) []string { return s.Endpoints }))
}
