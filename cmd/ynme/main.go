// Package main is the ynme sync-service entry point (hub + device agent).
package main

import (
	"log"

	"github.com/Sagararora90/ynme/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
