package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `Tracker admin

Usage:
  tracker -mode=<service> [-config-path=config.yaml]
  tracker -help

Services:
  admin-service    HTTP API, dashboard and live dashboard websocket
  ingest-service   MQTT subscriber that fills the location cache

Flags:
`

func PrintHelp() {
	fmt.Print(HelpMessage)
	flag.PrintDefaults()
}
