package cmd

import "github.com/spf13/cobra"

// redisCmd groups utilities for the seen/cooldown log store.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis utilities",
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
