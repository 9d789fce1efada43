package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bnema/roland/internal/adapters/transport/ipc"
	"github.com/bnema/roland/internal/adapters/watch"
	"github.com/bnema/roland/internal/application"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newListenCmd(app *app) *cobra.Command {
	var session string
	var serveSocket bool
	var readStdin bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Read transcripts line by line and act on them",
		Long:  "listen reads one transcript per line from stdin (pipe your speech-to-text here) and keeps the dialog and repeat context between lines. With --socket it also accepts transcripts from `roland send`.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = app.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var pipeline *application.Pipeline
			var store *application.MacroStore
			err := runStartup(ctx, cmd.ErrOrStderr(),
				startupStep{label: "Loading macros", run: func(ctx context.Context) error {
					_, err := app.macroStore(ctx)
					return err
				}},
				startupStep{label: "Opening keyboard", run: func(ctx context.Context) error {
					_, err := app.injector(ctx, cmd.ErrOrStderr())
					return err
				}},
				startupStep{label: "Starting pipeline", run: func(ctx context.Context) error {
					var err error
					pipeline, store, err = app.pipeline(ctx, cmd.ErrOrStderr())
					return err
				}},
			)
			if err != nil {
				return err
			}

			logger := app.logger.Named("listen")
			g, gctx := errgroup.WithContext(ctx)

			watcher, err := watch.New(app.cfg.Macros.Path, watch.DefaultDebounce, app.logger.Named("watch"))
			if err != nil {
				return err
			}
			g.Go(func() error {
				return watcher.Run(gctx, func(ctx context.Context) {
					if err := store.Refresh(ctx); err != nil {
						logger.Warn("refresh macros", zap.Error(err))
					}
				})
			})

			if serveSocket {
				server, err := ipc.Listen(app.cfg.SocketPath, func(ctx context.Context, req ipc.Request) ipc.Reply {
					return replyFor(pipeline.Process(ctx, req.Session, req.Transcript))
				}, app.logger.Named("ipc"))
				if err != nil {
					cancel()
					_ = g.Wait()
					return err
				}
				logger.Info("accepting transcripts", zap.String("socket", server.Path()))
				g.Go(func() error {
					return server.Serve(gctx)
				})
			}

			if readStdin {
				lines := scanLines(gctx, cmd.InOrStdin())
				g.Go(func() error {
					// stdin closing ends the session.
					defer cancel()
					return processLines(gctx, pipeline, session, lines, cmd.OutOrStdout(), cmd.ErrOrStderr())
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&session, "session", application.DefaultSession, "Dialog session name for stdin transcripts")
	cmd.Flags().BoolVar(&serveSocket, "socket", false, "Also accept transcripts over the unix socket")
	cmd.Flags().BoolVar(&readStdin, "stdin", true, "Read transcripts from stdin")

	return cmd
}

func processLines(ctx context.Context, pipeline *application.Pipeline, session string, lines <-chan string, out, errOut io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			result, err := pipeline.Process(ctx, session, line)
			if writeErr := writeReply(out, replyFor(result, nil), false); writeErr != nil {
				return writeErr
			}
			if err != nil {
				_, _ = fmt.Fprintf(errOut, "error: %v\n", err)
			}
		}
	}
}

// scanLines feeds non-blank lines until EOF or ctx is done. A read blocked on
// a terminal outlives ctx; the process exits around it.
func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
