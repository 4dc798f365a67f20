package main

import "campusdate/cmd"

func main() {
	cmd.Run()
}
