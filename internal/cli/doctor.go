package cli

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pairing-gallery/internal/api"
	"pairing-gallery/internal/store"
)

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type doctorReport struct {
	APIURL string        `json:"apiUrl"`
	Checks []doctorCheck `json:"checks"`
}

func (r doctorReport) HasErrors() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return true
		}
	}
	return false
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and painting API reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := doctorReport{APIURL: app.APIURL}

			cfgCheck := doctorCheck{Name: "config", OK: true}
			if path, err := store.ConfigPath(); err != nil {
				cfgCheck.OK = false
				cfgCheck.Error = err.Error()
			} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				cfgCheck.Detail = path + " (not created yet; defaults in use)"
			} else {
				cfgCheck.Detail = path
			}
			report.Checks = append(report.Checks, cfgCheck)

			client := app.client()
			ctx := cmd.Context()

			ping := doctorCheck{Name: "healthcheck"}
			start := time.Now()
			if err := client.Ping(ctx); err != nil {
				ping.Error = err.Error()
			} else {
				ping.OK = true
				ping.Detail = time.Since(start).Round(time.Millisecond).String()
			}
			report.Checks = append(report.Checks, ping)

			index := doctorCheck{Name: "index"}
			if res, err := client.FetchIndex(ctx, 1, 1); err != nil {
				index.Error = err.Error()
				if api.IsTransport(err) {
					index.Detail = "api unreachable; start one with `gallery serve` or set --api-url"
				}
			} else {
				index.OK = true
				if res.Pagination != nil {
					index.Detail = "paintings: " + strconv.Itoa(res.Pagination.Total)
				} else {
					index.Detail = "no pagination block in response"
				}
			}
			report.Checks = append(report.Checks, index)

			meta := map[string]any{"hasErrors": report.HasErrors()}
			if err := writeOut(cmd, app, envelope(report, meta, "gallery config show")); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return ErrDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if a check fails")
	return cmd
}
