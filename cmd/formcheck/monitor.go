package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ayusman/formcheck/internal/monitor"
)

var (
	monitorURL      string
	monitorInterval time.Duration
	monitorNoEvents bool
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch the active counting session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("url") {
				if cfg, err := loadConfig(); err == nil {
					monitorURL = "http://" + cfg.Addr()
				}
			}

			client := monitor.NewClient(monitorURL)
			var feed *monitor.EventFeed
			if !monitorNoEvents {
				feed = monitor.NewEventFeed(client.EventsURL())
			}

			p := tea.NewProgram(monitor.New(client, feed, monitorInterval), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&monitorURL, "url", "http://127.0.0.1:5000", "base URL of the formcheck server")
	cmd.Flags().DurationVar(&monitorInterval, "interval", monitor.DefaultInterval, "poll interval")
	cmd.Flags().BoolVar(&monitorNoEvents, "no-events", false, "poll only, without the live event feed")
	return cmd
}
