package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pairing-gallery/internal/gallery"
)

type sessionStep struct {
	Action string           `json:"action"`
	Arg    string           `json:"arg,omitempty"`
	Moved  *bool            `json:"moved,omitempty"`
	Snap   gallery.Snapshot `json:"-"`
}

func newSessionCmd(app *App) *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "session <action>...",
		Short: "Drive a headless gallery session and print its final state",
		Long: `Runs the same session controller as the TUI without a terminal UI.

Actions run in order; each waits for the fetches it started:
  enter              enter the gallery (loads the index)
  next | prev        move the carousel
  select <id>        open a painting
  select-current     open the painting under the carousel cursor
  pairing <basis>    open the representative pairing for a basis
  back               go back one view`,
		Example: strings.TrimSpace(`
  gallery session enter next next select-current pairing Emotion
  gallery session enter select 42 --trace
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSessionActions(args)
			if err != nil {
				return err
			}

			ctl := gallery.NewController(cmd.Context(), app.client(), gallery.ControllerConfig{
				Options: app.galleryOptions(),
				Logger:  app.logger(),
			})
			defer ctl.Close()

			var traceOut []map[string]any
			for i := range steps {
				if err := runSessionStep(ctl, &steps[i]); err != nil {
					return fmt.Errorf("step %d (%s): %w", i+1, steps[i].Action, err)
				}
				ctl.Wait()
				steps[i].Snap = ctl.Snapshot()
				if trace {
					traceOut = append(traceOut, map[string]any{"step": steps[i], "state": steps[i].Snap})
				}
			}

			final := ctl.Snapshot()
			meta := map[string]any{
				"steps":   len(steps),
				"session": final.SessionID,
			}
			if trace {
				meta["trace"] = traceOut
			}
			var hints []string
			if final.Detail != nil {
				hints = append(hints, fmt.Sprintf("gallery painting %d", final.Detail.ID))
			}
			return writeOut(cmd, app, envelope(final, meta, hints...))
		},
	}

	cmd.Flags().BoolVar(&trace, "trace", false, "Include the state after every action in meta.trace")
	return cmd
}

func parseSessionActions(args []string) ([]sessionStep, error) {
	var steps []sessionStep
	for i := 0; i < len(args); i++ {
		a := strings.ToLower(strings.TrimSpace(args[i]))
		switch a {
		case "enter", "next", "prev", "previous", "select-current", "back":
			steps = append(steps, sessionStep{Action: a})
		case "select", "pairing":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s needs an argument", a)
			}
			i++
			steps = append(steps, sessionStep{Action: a, Arg: args[i]})
		default:
			return nil, fmt.Errorf("unknown session action %q", args[i])
		}
	}
	return steps, nil
}

func runSessionStep(ctl *gallery.Controller, st *sessionStep) error {
	switch st.Action {
	case "enter":
		return ctl.EnterGallery()
	case "next", "prev", "previous":
		var (
			moved bool
			err   error
		)
		if st.Action == "next" {
			moved, err = ctl.Next()
		} else {
			moved, err = ctl.Previous()
		}
		st.Moved = &moved
		return err
	case "select":
		id, err := parseID(st.Arg)
		if err != nil {
			return err
		}
		return ctl.SelectPainting(id)
	case "select-current":
		return ctl.SelectCurrent()
	case "pairing":
		return ctl.SelectBasis(st.Arg)
	case "back":
		return ctl.Back()
	}
	return fmt.Errorf("unknown session action %q", st.Action)
}
