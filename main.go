package main

import "gitlab.com/paramountdax-exchange/papertrade_ledger/cmd"

func main() {
	cmd.Execute()
}
