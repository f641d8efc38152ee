package main

import (
	"os"

	// REFCODE_TIMEZONE must resolve in minimal images without a zoneinfo tree
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
