// Command synctext runs one peer of the collaborative text editor.
//
// Usage: synctext [flags] <user_id>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhinavnagar29/synctext/internal/config"
	"github.com/abhinavnagar29/synctext/internal/editor"
	"github.com/abhinavnagar29/synctext/internal/render"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var initErr *editor.InitError
		if errors.As(err, &initErr) {
			return initErr.Code
		}
		return editor.ExitArgMisuse
	}
	return editor.ExitOK
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "synctext <user_id>",
		Short:        "run one peer of the collaborative text editor",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, args[0])
		},
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

func runEditor(cmd *cobra.Command, userID string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return &editor.InitError{Code: editor.ExitInitFailure, Err: err}
	}

	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	ed, err := editor.Open(cfg, userID, log)
	if err != nil {
		var initErr *editor.InitError
		if errors.As(err, &initErr) {
			fmt.Fprintln(os.Stderr, initErr.Error())
		}
		return err
	}
	ed.OnSnapshot(func(s render.Snapshot) { render.WriteTo(os.Stdout, s) })

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return ed.Run(ctx)
}
