package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fdcopy/internal/config"
	"github.com/bamsammich/fdcopy/internal/copyfile"
)

var benchCmd = &cobra.Command{
	Use:   "bench [dir]",
	Short: "Compare direct and buffered copy throughput on a scratch file",
	Long: `bench writes a scratch file in dir (default: the system temp directory),
copies it once with each strategy and suggests a --strategy value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().String("size", "64M", "scratch file size")
}

func runBench(cmd *cobra.Command, args []string) error {
	dir := os.TempDir()
	if len(args) == 1 {
		dir = args[0]
	}

	sizeStr, _ := cmd.Flags().GetString("size") //nolint:errcheck // flag name is hardcoded
	size, err := config.ParseSize(sizeStr)
	if err != nil {
		return fmt.Errorf("invalid --size: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := copyfile.RunBenchmark(ctx, dir, size)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), copyfile.FormatBenchmark(result))
	return nil
}
