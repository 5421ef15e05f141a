package main

import "github.com/quatton/libra/apps/libracloud/cmd"

func main() {
	cmd.Execute()
}
