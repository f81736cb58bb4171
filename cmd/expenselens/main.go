package main

import "github.com/expenselens/backend/internal/cli"

func main() {
	cli.Execute()
}
