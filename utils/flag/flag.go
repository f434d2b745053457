/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package.
	Flags are parsed by each binary's main function, never in package init,
	so that `go test` flags keep working.
*/

package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
	Seeder    = "seeder"
)

var (
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName   = flag.String("service", APIServer, "'api_server' or 'seeder'")
	AppConfigPath = flag.String("app_config_path", "cmd/server/config.yaml", "path to the yaml app config")
)
