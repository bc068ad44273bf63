package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/horologe/pkg/config"
)

func newEvalCmd(st *state) *cobra.Command {
	var watch, outlines bool

	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Evaluate a movement script or TOML manifest",
		Long: "Evaluates a movement script, or a .toml movement manifest, solves its trains " +
			"and reports the movement. With --watch the file is evaluated again on every save.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd, nil)
			if err != nil {
				return err
			}
			app := NewApp(st.log)
			path := args[0]
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			if !watch {
				return report(out, errOut, evalFile(cmd.Context(), app, path, cfg, outlines))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w, err := NewWatcher(path)
			if err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			if err := w.Start(); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			defer w.Stop()

			if err := report(out, errOut, evalFile(ctx, app, path, cfg, outlines)); err != nil {
				st.log.Warn("evaluation failed", "file", path, "err", err)
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-w.Changes:
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "--- %s changed\n", path)
					if err := report(out, errOut, evalFile(ctx, app, path, cfg, outlines)); err != nil {
						st.log.Warn("evaluation failed", "file", path, "err", err)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "evaluate again whenever the file changes")
	cmd.Flags().BoolVar(&outlines, "outlines", false, "flatten every part outline")
	return cmd
}

// isManifest reports whether path names a TOML movement manifest.
func isManifest(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func evalFile(ctx context.Context, app *App, path string, cfg config.Config, outlines bool) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		res := newResult()
		res.Errors = append(res.Errors, Problem{Message: err.Error()})
		return res
	}
	if isManifest(path) {
		return app.LoadManifest(ctx, data, cfg, outlines)
	}
	return app.Evaluate(ctx, string(data), outlines)
}

func report(out, errOut io.Writer, res Result) error {
	printProblems(errOut, res)
	if len(res.Errors) > 0 {
		return fmt.Errorf("evaluation failed with %d error(s)", len(res.Errors))
	}
	return printMovement(out, res)
}
