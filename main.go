package main

import "github.com/KaramelBytes/regresslab/cmd"

func main() {
	cmd.Execute()
}
