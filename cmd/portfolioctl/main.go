// portfolioctl 是运维与本地调试用的命令行工具。
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Render portfolios offline and manage artist accounts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRenderCmd(), newMigrateCmd(), newResetPasswordCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
