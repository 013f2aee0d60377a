package main

import (
	"os"

	"github.com/sonarsync/sonarsync/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
