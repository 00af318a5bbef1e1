package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var composeFile string

// execute runs external tools; tests replace it to capture invocations.
var execute = runCommand

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "insightdrop: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insightdrop",
		Short: "InsightDrop development CLI",
		Long: `InsightDrop CLI drives the Docker stack, runs the binaries and tests, applies
database migrations and analyzes local files without a running server.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&composeFile, "compose-file", "f", "docker-compose.yml", "Compose file to use for stack commands")
	cmd.AddCommand(
		newComposeCmd("build [service...]", "Build Docker images via docker compose", "build", true,
			composeFlag{name: "no-cache", usage: "Disable Docker build cache", arg: "--no-cache"}),
		newComposeCmd("up [service...]", "Start postgres, redis, minio, api and worker", "up", true,
			composeFlag{name: "skip-build", usage: "Skip rebuilding images before starting", arg: "--build", whenUnset: true},
			composeFlag{name: "detached", shorthand: "d", usage: "Run docker compose in detached mode", arg: "-d", def: true}),
		newComposeCmd("down", "Stop the docker compose stack", "down", false,
			composeFlag{name: "volumes", shorthand: "v", usage: "Remove stack volumes", arg: "-v"}),
		// -f belongs to --compose-file, so --follow has no shorthand.
		newComposeCmd("logs [service...]", "Tail logs from docker compose services", "logs", true,
			composeFlag{name: "follow", usage: "Stream logs continuously", arg: "-f"}),
		newTestCmd(),
		newRunCmd(),
		newAnalyzeCmd(),
		newMigrateCmd(),
	)
	return cmd
}

// composeFlag maps a boolean flag onto a docker compose argument.
type composeFlag struct {
	name      string
	shorthand string
	usage     string
	def       bool
	arg       string
	// whenUnset appends arg when the flag is false instead of true.
	whenUnset bool
}

func newComposeCmd(use, short, verb string, passArgs bool, flags ...composeFlag) *cobra.Command {
	values := make([]bool, len(flags))
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			composeArgs := []string{"compose", "-f", composeFile, verb}
			for i, f := range flags {
				if values[i] != f.whenUnset {
					composeArgs = append(composeArgs, f.arg)
				}
			}
			if passArgs {
				composeArgs = append(composeArgs, args...)
			}
			return execute(cmd.Context(), "docker", composeArgs...)
		},
	}
	if !passArgs {
		cmd.Args = cobra.NoArgs
	}
	for i, f := range flags {
		cmd.Flags().BoolVarP(&values[i], f.name, f.shorthand, f.def, f.usage)
	}
	return cmd
}

func newTestCmd() *cobra.Command {
	var race, cover bool
	cmd := &cobra.Command{
		Use:   "test [packages]",
		Short: "Run Go tests (defaults to ./...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			goArgs := []string{"test"}
			if race {
				goArgs = append(goArgs, "-race")
			}
			if cover {
				goArgs = append(goArgs, "-cover")
			}
			if len(args) == 0 {
				args = []string{"./..."}
			}
			return execute(cmd.Context(), "go", append(goArgs, args...)...)
		},
	}
	cmd.Flags().BoolVar(&race, "race", false, "Enable Go race detector")
	cmd.Flags().BoolVar(&cover, "cover", false, "Collect coverage data")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the api or worker binary with go run",
	}
	for _, name := range []string{"api", "worker"} {
		path := "./cmd/" + name
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "go run " + path,
			RunE: func(cmd *cobra.Command, args []string) error {
				return execute(cmd.Context(), "go", append([]string{"run", path}, args...)...)
			},
		})
	}
	return cmd
}

func runCommand(ctx context.Context, name string, args ...string) error {
	c := exec.CommandContext(ctx, name, args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Stdin = os.Stdin
	return c.Run()
}
