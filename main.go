package main

import "github.com/sarchlab/playline/cmd"

func main() {
	cmd.Execute()
}
