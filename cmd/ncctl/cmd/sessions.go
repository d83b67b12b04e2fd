package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
)

// sessionsCmd represents the sessions command.
var sessionsCmd = &cobra.Command{
	Use:          "sessions",
	Short:        "list live NETCONF sessions",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		client, err := createAdminClient(ctx, addr)
		if err != nil {
			return err
		}
		rsp, err := client.ListSessions(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(rsp)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
