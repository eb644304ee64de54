// Copyright © 2018 One Concern

package main

import "github.com/oneconcern/termstore/cmd/termstore/cmd"

func main() {
	cmd.Execute()
}
