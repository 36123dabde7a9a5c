// Command erpctl manages erpcore instances: create, list, inspect, check and
// copy them between storage backends.
package main

import (
	"os"

	"erpcore/cmd/erpctl/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
