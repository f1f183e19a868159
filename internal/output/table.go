package output

import (
	"fmt"

	"github.com/fbflash/fbflash/internal/usb"
	"github.com/pterm/pterm"
)

// PrintDevicesTable prints a table of fastboot-mode USB devices.
func PrintDevicesTable(devices []usb.Device) {
	if len(devices) == 0 {
		pterm.Info.Println("No fastboot devices found")
		return
	}

	tableData := pterm.TableData{
		{"Serial", "VID:PID", "Manufacturer", "Product"},
	}

	for _, d := range devices {
		tableData = append(tableData, []string{
			d.Serial,
			fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID),
			valueOrDash(d.Manufacturer),
			valueOrDash(d.Product),
		})
	}

	pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Render()
}

// PrintDeviceInfo prints detailed information about a single device plus
// the getvar pairs collected from it.
func PrintDeviceInfo(device usb.Device, vars map[string]string) {
	title := device.Product
	if title == "" {
		title = device.Serial
	}
	pterm.DefaultSection.Println(title)

	pairs := [][]string{
		{"Serial", device.Serial},
		{"Vendor ID", pterm.Sprintf("%04x", device.VendorID)},
		{"Product ID", pterm.Sprintf("%04x", device.ProductID)},
		{"Manufacturer", valueOrDash(device.Manufacturer)},
		{"Product", valueOrDash(device.Product)},
	}
	for name, value := range vars {
		pairs = append(pairs, []string{name, value})
	}

	tableData := pterm.TableData{}
	for _, pair := range pairs {
		tableData = append(tableData, pair)
	}

	pterm.DefaultTable.WithData(tableData).Render()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
