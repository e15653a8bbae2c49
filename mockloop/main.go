package main

import "github.com/dispatchlab/mockloop/mockloop/cmd"

func main() {
	cmd.Execute()
}
