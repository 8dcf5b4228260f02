package main

import "github.com/ppiankov/phrasegate/internal/cli"

func main() {
	cli.Execute()
}
