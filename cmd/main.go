/*
Package main is the entry point for the telebbs terminal bulletin board.

It loads configuration, initializes the global logging system, opens the storage
backend, starts the telnet listener and the HTTP side-channel, and shuts both down
gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}
