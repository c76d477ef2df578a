package main

import "github.com/nethalo/sqlsentinel/cmd"

func main() {
	cmd.Execute()
}
