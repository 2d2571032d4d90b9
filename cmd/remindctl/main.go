// remindctl: preview y envío manual de recordatorios de cobro desde la terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultRunner).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
