// The main package for the webharvest executable.
package main

import (
	"github.com/geodocs/webharvest/cmd"
)

func main() {
	cmd.Execute()
}
