package main

import "github.com/sigexport/cipherbuild/cmd/cipherbuild/internal"

func main() {
	internal.Execute()
}
