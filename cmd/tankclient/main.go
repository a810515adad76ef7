// Command tankclient is a headless client CLI: connect to a server and
// stay joined until interrupted, or discover servers advertising on the
// local LAN.
package main

import "tanknet/cmd/tankclient/cmd"

func main() {
	cmd.Execute()
}
