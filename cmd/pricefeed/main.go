package main

import (
	"os"

	"github.com/paw-chain/pricefeed/cmd/pricefeed/cmd"
)

func main() {
	if err := cmd.Execute(cmd.NewRootCmd()); err != nil {
		os.Exit(1)
	}
}
