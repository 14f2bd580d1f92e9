package main

import "github.com/kvasir-auth/kvasir/src/kvasirctl/internal/cmd"

func main() {
	cmd.Execute()
}
