package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volcap/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var includeDisconnected bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch devices and reprint the list whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				initial, err := client.Devices(includeDisconnected)
				if err != nil {
					return err
				}
				if err := printDeviceList(cmd, initial.Devices, includeDisconnected, asJSON); err != nil {
					return err
				}

				revision := initial.Revision
				for {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					resp, err := client.DevicesWait(ipc.DevicesWaitRequest{
						SinceRevision: revision,
						WaitMillis:    5000,
					})
					if err != nil {
						return fmt.Errorf("wait for device updates: %w", err)
					}
					if !resp.Changed {
						continue
					}
					revision = resp.Revision
					devices := resp.Devices
					if includeDisconnected {
						full, err := client.Devices(true)
						if err != nil {
							return err
						}
						devices = full.Devices
					}
					if err := printDeviceList(cmd, devices, includeDisconnected, asJSON); err != nil {
						return err
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&includeDisconnected, "all", "a", false, "Include disconnected devices with saved ceilings")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output device lists as JSON")
	return cmd
}

func printDeviceList(cmd *cobra.Command, devices []ipc.Device, includeDisconnected, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, devices)
	}
	stdout := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(stdout, "No devices found")
		return nil
	}
	table := renderTable(
		deviceTableHeaders(includeDisconnected),
		deviceTableRows(devices, includeDisconnected),
		deviceTableAligns(includeDisconnected),
	)
	fmt.Fprintln(stdout, table)
	return nil
}
