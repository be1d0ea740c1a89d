package main

import "github.com/glottolab/areal/cmd"

func main() {
	cmd.Execute()
}
