package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/openncd/netconfd/internal/admin"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ncctl",
	Short: "operator CLI for a running netconfd's admin service",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called by main.main and only needs to run once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var addr string

func init() {
	rootCmd.PersistentFlags().StringVarP(&addr, "address", "a", "localhost:8830", "netconfd admin service address")
}

func createAdminClient(ctx context.Context, addr string) (admin.AdminServiceClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cc, err := grpc.DialContext(ctx, addr,
		grpc.WithBlock(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}
	return admin.NewAdminServiceClient(cc), nil
}
