package main

import "github.com/meysamhadeli/aifiles/cmd"

func main() {
	cmd.Execute()
}
