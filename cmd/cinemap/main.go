package main

import "github.com/vietddude/cinemap/internal/cli"

func main() {
	cli.Execute()
}
