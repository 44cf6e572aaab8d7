package main

import "github.com/frahmantamala/household-ledger/cmd"

func main() {
	cmd.Execute()
}
