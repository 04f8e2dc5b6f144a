package main

import "github.com/Sternrassler/knowledge-portal/cmd/portal/cmd"

func main() {
	cmd.Execute()
}
