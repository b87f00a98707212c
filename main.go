package main

import "github.com/chrisdamba/foodlens/cmd"

func main() {
	cmd.Execute()
}
