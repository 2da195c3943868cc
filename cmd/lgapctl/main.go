package main

import (
	"github.com/robotalks/lgap.go/pkg/cli/sh"
)

func main() {
	sh.Main()
}
