// Command irid scores villages on the climate vulnerability index from the
// command line and renders their dashboards and reports.
package main

import "github.com/couchcryptid/climate-risk-service/internal/cli"

func main() {
	cli.Execute()
}
