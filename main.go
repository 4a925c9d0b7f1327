package main

import "github.com/manifest-network/chainctl/cmd/chainctl"

func main() {
	chainctl.Execute()
}
