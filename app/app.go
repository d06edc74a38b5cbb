// Package app defines the command-line interface
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/devscope/tracker/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the devscope app instance.
func Get() *cli.App {
	trackerApp := &cli.App{
		Name: "devscope",
		Usage: `
		DevScope tracks focused work sessions from the command-line. It measures
		active and idle time within each session and syncs the results to a
		backend, falling back to a durable offline queue when the network is
		unavailable.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
			{
				Name:   "list",
				Usage:  "List sessions within a time period. Defaults to the last 7 days",
				Action: listAction,
				Flags: []cli.Flag{
					periodFlag,
					startFlag,
					endFlag,
					addTagFlag,
					jsonFlag,
					noColorFlag,
				},
			},
			{
				Name:   "stats",
				Usage:  "Track your progress with statistics reporting. Defaults to a reporting period of 7 days",
				Action: statsAction,
				Flags: []cli.Flag{
					periodFlag,
					startFlag,
					endFlag,
					addTagFlag,
					jsonFlag,
					noColorFlag,
				},
			},
			{
				Name:   "status",
				Usage:  "Print the status of the timer",
				Action: statusAction,
			},
			{
				Name:   "sync",
				Usage:  "Deliver queued payloads to the backend",
				Action: syncAction,
				Flags: []cli.Flag{
					noColorFlag,
				},
			},
			{
				Name:   "queue",
				Usage:  "Inspect the offline sync queue",
				Action: queueAction,
				Flags: []cli.Flag{
					jsonFlag,
					noColorFlag,
				},
			},
		},
		Flags: []cli.Flag{
			workFlag,
			breakFlag,
			addTagFlag,
			disableNotificationFlag,
			noSyncFlag,
			sessionCmdFlag,
			noColorFlag,
		},
		Action: defaultAction,
		Before: beforeAction,
	}

	return trackerApp
}
