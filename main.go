package main

import "expense-sync/cmd"

func main() {
	cmd.Execute()
}
