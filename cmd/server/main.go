package main

import "github.com/simple-event-calendar/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
