package main

import "github.com/praveen420coder/sf-log-analyzer/internal/cmd"

func main() {
	cmd.Execute()
}
