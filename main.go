package main

import "transcribe-cafe/cmd"

func main() {
	cmd.Execute()
}
