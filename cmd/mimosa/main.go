package main

import "github.com/mimosa-app/mimosa/internal/cmd"

func main() {
	cmd.Execute()
}
