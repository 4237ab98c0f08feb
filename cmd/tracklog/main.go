package main

import "github.com/tracklog/tracklog-client/cmd/tracklog/cmd"

func main() {
	cmd.Execute()
}
