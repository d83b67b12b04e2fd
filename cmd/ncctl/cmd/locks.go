package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
)

// locksCmd represents the locks command.
var locksCmd = &cobra.Command{
	Use:          "locks",
	Short:        "show which session, if any, holds each datastore's global lock",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		client, err := createAdminClient(ctx, addr)
		if err != nil {
			return err
		}
		rsp, err := client.ListLocks(ctx, &emptypb.Empty{})
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
	rootCmd.AddCommand(locksCmd)
}
