// dhcpauthctl -- operator CLI for dhcpauthd configuration diagnosis.
package main

import "github.com/dantte-lp/dhcpauthd/cmd/dhcpauthctl/commands"

func main() {
	commands.Execute()
}
