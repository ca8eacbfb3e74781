package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volcap/internal/ipc"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var includeDisconnected bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List sound devices and their volume ceilings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Devices(includeDisconnected)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Devices) == 0 {
					fmt.Fprintln(stdout, "No devices found")
					return nil
				}
				table := renderTable(
					deviceTableHeaders(includeDisconnected),
					deviceTableRows(resp.Devices, includeDisconnected),
					deviceTableAligns(includeDisconnected),
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&includeDisconnected, "all", "a", false, "Include disconnected devices with saved ceilings")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output devices as JSON")
	return cmd
}
