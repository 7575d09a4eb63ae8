package main

import "github.com/mcoot/expense-tracker-go/internal/cli"

func main() {
	cli.Execute()
}
