package main

import "predictdemo/cli"

func main() {
	cli.Execute()
}
