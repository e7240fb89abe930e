package main

import "github.com/goplus/stager/cmd/stager/internal"

func main() {
	internal.Execute()
}
