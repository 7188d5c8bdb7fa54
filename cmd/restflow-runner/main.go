package main

import "github.com/restflow-dev/restflow-runner/pkg/cli"

func main() {
	cli.Execute()
}
