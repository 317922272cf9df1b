// Package main wires together the crawlkit binary.
package main

import "github.com/crawlkit/crawlkit/cmd"

func main() {
	cmd.Execute()
}
