package main

import (
	"timesheet/internal/cli"
	"timesheet/internal/ctl"
)

func main() {
	cli.LoadEnvFile()
	ctl.Execute()
}
