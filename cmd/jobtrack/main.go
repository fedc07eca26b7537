package main

import "github.com/hupe1980/jobtrack/cli"

func main() {
	cli.Execute()
}
