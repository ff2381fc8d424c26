package main

import (
	"os"

	"github.com/endorses/ptmf2pcap/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
