package main

import "github.com/parties247/party-fetcher/internal/cli"

func main() {
	cli.Execute()
}
