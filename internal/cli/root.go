package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/forgehq/forged/internal"
)

// Represents the root command for the forged daemon and client.
var RootCmd struct {
	Quiet      bool       `short:"q" help:"Suppress informational output."`
	Verbose    bool       `short:"v" help:"Enable verbose output."`
	Debug      bool       `short:"d" help:"Enable debug output."`
	Socket     string     `short:"s" help:"Override the default Unix socket path." placeholder:"PATH"`
	Containerd string     `help:"Override the containerd socket address." placeholder:"PATH"`
	Namespace  string     `help:"Override the containerd namespace." placeholder:"NAME"`
	Start      StartCmd   `cmd:"" help:"Start the daemon."`
	Stop       StopCmd    `cmd:"" help:"Stop a running daemon."`
	Status     StatusCmd  `cmd:"" help:"Show daemon status."`
	Build      BuildCmd   `cmd:"" help:"Build an image from a descriptor."`
	Run        RunCmd     `cmd:"" help:"Run a built image to completion."`
	Render     RenderCmd  `cmd:"" help:"Render a descriptor as a Dockerfile."`
	Image      ImageCmd   `cmd:"" help:"Manage images."`
	Version    VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("The Forge build daemon.\n\nBuilds container images from descriptors and runs them via containerd."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: RootCmd.Verbose || internal.IsVerbose(),
	})
	slog.SetDefault(slog.New(handler))
}
