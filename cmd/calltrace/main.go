// Command calltrace runs an instrumented demo workload and prints its call
// lines.
package main

import (
	"os"

	"github.com/hejijunhao/calltrace/cmd/calltrace/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
