package main

import (
	cmd "github.com/rohmanhakim/board-scraper/internal/cli"
)

func main() {
	cmd.Execute()
}
