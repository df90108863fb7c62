package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/pubsub"
	"github.com/ritzau/jsat-analyzer/pkg/session"
	"github.com/ritzau/jsat-analyzer/pkg/watcher"
	"github.com/ritzau/jsat-analyzer/pkg/web"
)

const (
	reloadQuietPeriod = 200 * time.Millisecond
	reloadMaxWait     = 2 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve a live editing session over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			doc := cfg.Document
			if len(args) == 1 {
				doc = args[0]
			}

			server := web.NewServer(func(p pubsub.Publisher) *session.Session {
				return newSession(cfg, session.WithPublisher(p))
			})

			if doc != "" {
				var err error
				server.Do(func(s *session.Session) { err = importFile(s, doc) })
				if err != nil {
					return err
				}
				if cfg.Watch {
					if err := watchDocument(cmd.Context(), server, doc); err != nil {
						return err
					}
				}
			} else if cfg.Watch {
				logging.Warn("nothing to watch without a document")
			}

			return server.Start(cmd.Context(), cfg.Port)
		},
	}

	cmd.Flags().Int("port", 8080, "port for the web server")
	cmd.Flags().Bool("watch", false, "reload the document when it changes on disk")
	cmd.Flags().String("document", "", "document to load when none is given as argument")
	return cmd
}

// watchDocument reimports doc into the session whenever the file settles
// after a change. A reload is one undoable step like any import.
func watchDocument(ctx context.Context, server *web.Server, doc string) error {
	fw, err := watcher.NewFileWatcher(doc)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), reloadQuietPeriod, reloadMaxWait)
	debouncer.Start(ctx)

	go func() {
		for ev := range debouncer.Output() {
			if ev.Type == watcher.ChangeTypeRemoved {
				logging.Warn("document removed, keeping current graph", "path", ev.Path)
				continue
			}
			var err error
			server.Do(func(s *session.Session) { err = importFile(s, fw.Path()) })
			if err != nil {
				logging.Error("reload failed", "error", err)
				continue
			}
			logging.Info("document reloaded", "path", fw.Path())
		}
	}()
	return nil
}

