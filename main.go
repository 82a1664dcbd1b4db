package main

import (
	"github.com/warbler-labs/rewards-engine/cmd"
)

func main() {
	cmd.Execute()
}
