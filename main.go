package main

import (
	"github.com/kabirmdasraful/wrapdisc/cmd"
)

func main() {
	cmd.Execute()
}
