// Command upkeep tracks recurring maintenance of owned items.
package main

import "github.com/mesh-intelligence/upkeep/internal/cli"

func main() {
	cli.Execute()
}
