// driverlog - Browser Automation Log Normalizer
//
// driverlog parses ChromeDriver, transcript, BiDi, and protocol-monitor
// logs into one normalized, correlated timeline.
package main

import (
	"os"

	"github.com/ccollicutt/driverlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
