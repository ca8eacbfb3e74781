package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"volcap/internal/ipc"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <device-id> <max-volume>",
		Short: "Set the volume ceiling for a device",
		Long: "Set the volume ceiling for a device. The ceiling is accepted as a\n" +
			"fraction (0.65) or a percentage (65%). Disconnected devices with a saved\n" +
			"ceiling are updated for their next reconnection.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("device id is required")
			}
			value, err := parseVolumeArg(args[1])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetDeviceMax(id, value)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				dev := resp.Device
				if dev.Connected {
					fmt.Fprintf(stdout, "Ceiling for %s set to %s (effective %s)\n",
						dev.Name, formatVolume(dev.MaxVolume), formatVolume(dev.EffectiveMaxVolume))
				} else {
					fmt.Fprintf(stdout, "Ceiling for %s set to %s (device disconnected, applies on reconnect)\n",
						dev.Name, formatVolume(dev.MaxVolume))
				}
				return nil
			})
		},
	}
}

func newSetGlobalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-global <max-volume>",
		Short: "Set the global volume ceiling for all devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseVolumeArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetGlobalMax(value)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Global ceiling set to %s\n", formatVolume(value))
				if len(resp.Devices) > 0 {
					table := renderTable(
						deviceTableHeaders(false),
						deviceTableRows(resp.Devices, false),
						deviceTableAligns(false),
					)
					fmt.Fprintln(stdout, table)
				}
				return nil
			})
		},
	}
}

func newGlobalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "global",
		Short: "Show the global volume ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GlobalMax()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Global ceiling: %s\n", formatVolume(resp.MaxVolume))
				return nil
			})
		},
	}
}
