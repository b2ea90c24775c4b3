package main

import (
	"github.com/ballastd/ballast/cmd"
)

func main() {
	cmd.Execute()
}
