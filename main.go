package main

import "github.com/gaurav-prasanna/schedpdf/cmd"

func main() {
	cmd.Execute()
}
