package main

import "github.com/cnharrison/harq/internal/cmd"

func main() {
	cmd.Execute()
}
