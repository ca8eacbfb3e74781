package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"volcap/internal/ipc"
)

// parseVolumeArg accepts a ceiling either as a fraction ("0.65") or as a
// percentage ("65%" or "65"). Bare numbers above 1.0 are treated as percent.
func parseVolumeArg(arg string) (float64, error) {
	trimmed := strings.TrimSpace(arg)
	percent := strings.HasSuffix(trimmed, "%")
	trimmed = strings.TrimSuffix(trimmed, "%")
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: expected a fraction like 0.65 or a percentage like 65%%", arg)
	}
	if percent || value > 1.0 {
		value /= 100
	}
	return value, nil
}

func formatVolume(value float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(value*100)))
}

func deviceTableHeaders(includeDisconnected bool) []string {
	headers := []string{"ID", "Name", "Volume", "Max", "Effective"}
	if includeDisconnected {
		headers = append(headers, "Connected")
	}
	return headers
}

func deviceTableRows(devices []ipc.Device, includeDisconnected bool) [][]string {
	rows := make([][]string, 0, len(devices))
	for _, dev := range devices {
		volume := "-"
		if dev.Connected {
			volume = formatVolume(dev.Volume)
		}
		row := []string{
			dev.ID,
			dev.Name,
			volume,
			formatVolume(dev.MaxVolume),
			formatVolume(dev.EffectiveMaxVolume),
		}
		if includeDisconnected {
			row = append(row, yesNo(dev.Connected))
		}
		rows = append(rows, row)
	}
	return rows
}

func deviceTableAligns(includeDisconnected bool) []columnAlignment {
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}
	if includeDisconnected {
		aligns = append(aligns, alignLeft)
	}
	return aligns
}
