package main

import "github.com/tanpawarit/outreach-agent/cmd"

func main() {
	cmd.Execute()
}
