package main

import "github.com/frahmantamala/worktally/cmd"

func main() {
	cmd.Execute()
}
