// Command bitcalc evaluates binary arithmetic programs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bitcalc:", err)
		os.Exit(1)
	}
}
