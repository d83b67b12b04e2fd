// Command ncctl is the operator CLI for netconfd's admin surface: it
// dials the gRPC service internal/admin exposes and prints whatever it
// returns. It has no view into NETCONF sessions beyond what that
// service reports.
package main

import "github.com/openncd/netconfd/cmd/ncctl/cmd"

func main() {
	cmd.Execute()
}
