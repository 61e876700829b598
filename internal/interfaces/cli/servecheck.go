package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

func newServeCheckCmd(op Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-check",
		Short: "Validate the configuration and check every backing service",
		Long: "Loads and validates the configuration, then checks that Postgres, Redis\n" +
			"and, when brokers are configured, Kafka are reachable. Exits non-zero when\n" +
			"any check fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cc.withTimeout(cmd.Context())
			defer cancel()

			report := runChecks(ctx, op, cc)
			if err := PrintResult(cmd, report); err != nil {
				return err
			}
			if !report.Ready {
				return errors.New(errors.ErrCodeServiceUnavailable, "one or more services are unavailable")
			}
			return nil
		},
	}
}

type checkResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

type checkReport struct {
	Ready  bool          `json:"ready"`
	Checks []checkResult `json:"checks"`
}

func (r checkReport) Text() string {
	rows := make([][]string, 0, len(r.Checks))
	for _, p := range r.Checks {
		status := "ok"
		if !p.Healthy {
			status = "FAIL"
		}
		rows = append(rows, []string{p.Name, status, p.Latency, p.Error})
	}
	verdict := "ready"
	if !r.Ready {
		verdict = "not ready"
	}
	return FormatTable([]string{"SERVICE", "STATUS", "LATENCY", "ERROR"}, rows) + fmt.Sprintf("\nConfiguration valid, services %s\n", verdict)
}

func runChecks(ctx context.Context, op Opener, cc *CLIContext) checkReport {
	checks := op.Checks(cc)
	results := make([]checkResult, len(checks))

	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			err := checks[i].Check(ctx)
			results[i] = checkResult{
				Name:    checks[i].Name(),
				Healthy: err == nil,
				Latency: time.Since(start).Truncate(time.Millisecond).String(),
			}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Name < results[b].Name })
	report := checkReport{Ready: true, Checks: results}
	for _, r := range results {
		if !r.Healthy {
			report.Ready = false
		}
	}
	return report
}

//Personal.AI order the ending
