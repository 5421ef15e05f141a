package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/quatton/libra/apps/libractl/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "libractl crashed: %v\n", r)
			if os.Getenv("LIBRA_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
