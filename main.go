package main

import (
	cmd "github.com/homestage-ai/staging-client/cmd/homestage"
)

func main() {
	cmd.Execute()
}
