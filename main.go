package main

import "github.com/Norgate-AV/widgetpack/cmd"

func main() {
	cmd.Execute()
}
