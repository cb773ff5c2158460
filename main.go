package main

import "github.com/graest/orcamento/cmd"

func main() {
	cmd.Execute()
}
