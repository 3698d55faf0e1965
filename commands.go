package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/senfoni/internal/app"
	"github.com/llehouerou/senfoni/internal/config"
	"github.com/llehouerou/senfoni/internal/errmsg"
	"github.com/llehouerou/senfoni/internal/logging"
	"github.com/llehouerou/senfoni/internal/mpris"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context())
		},
	}
}

// withServices loads the configuration, sets up logging and opens the
// shared services for the duration of fn.
func withServices(fn func(svc *app.Services) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logCloser, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	svc, err := app.OpenServices(cfg, slog.Default())
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	return errors.Join(fn(svc), svc.Close())
}

func runConsole(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withServices(func(svc *app.Services) error {
		session := svc.NewSession()
		announcer := svc.NewInterjector(session)
		console := app.New(app.Deps{
			Session:   session,
			Favorites: svc.Favorites,
			Cache:     svc.Cache,
			Speaker:   announcer,
			Prefs:     svc.State,
			Logger:    svc.Logger,
		}, os.Stdout)

		bus, err := mpris.New(ctx, session, svc.Logger)
		if err != nil {
			svc.Logger.Warn("media keys unavailable", "err", err)
		}

		console.Start(ctx)
		runErr := console.Run(ctx, os.Stdin)

		stop()
		if bus != nil {
			if err := bus.Close(); err != nil {
				svc.Logger.Debug("close mpris", "err", err)
			}
		}
		announcer.Close()
		closeErr := session.Close()
		console.Wait()
		return errors.Join(runErr, closeErr)
	})
}

func favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved favorites",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(func(svc *app.Services) error {
					return printFavorites(cmd.OutOrStdout(), svc)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <url>",
			Short: "Remove a favorite and its cached audio",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(func(svc *app.Services) error {
					removed, err := svc.Favorites.Remove(args[0])
					if err != nil {
						return errors.New(errmsg.FormatWith(errmsg.OpFavoriteRemove, args[0], err))
					}
					if !removed {
						return fmt.Errorf("not a favorite: %s", args[0])
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Removed.")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rename <n> <title>",
			Short: "Rename favorite n (1-based)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index %q", args[0])
				}
				return withServices(func(svc *app.Services) error {
					if err := svc.Favorites.Rename(n-1, args[1]); err != nil {
						return errors.New(errmsg.FormatWith(errmsg.OpFavoriteRename, "#"+args[0], err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Renamed #%d to %s\n", n, args[1])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "import <file.json>",
			Short: "Import favorites from a JSON list of {title, url, duration}",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(func(svc *app.Services) error {
					n, err := svc.Favorites.ImportJSON(args[0])
					if err != nil {
						return errors.New(errmsg.FormatWith(errmsg.OpFavoriteImport, args[0], err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Imported %d favorites.\n", n)
					return nil
				})
			},
		},
	)
	return cmd
}

func printFavorites(w io.Writer, svc *app.Services) error {
	favs := svc.Favorites.List()
	if len(favs) == 0 {
		fmt.Fprintln(w, "No favorites yet.")
		return nil
	}
	for i, f := range favs {
		mark := " "
		if _, ok := svc.Cache.Lookup(f.URL, f.Title); ok {
			mark = "*"
		}
		fmt.Fprintf(w, "%s%3d. %s  %s\n", mark, i+1, f.Title, f.URL)
	}
	return nil
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the favorites audio cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show cache usage",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(func(svc *app.Services) error {
					u, err := svc.Cache.Usage()
					if err != nil {
						return errors.New(errmsg.Format(errmsg.OpCacheUsage, err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s files, %s\n",
						svc.Cache.Dir(), humanize.Comma(int64(u.Files)), humanize.Bytes(uint64(max(u.Bytes, 0))))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Delete cached files that belong to no favorite",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(func(svc *app.Services) error {
					n, err := svc.Cache.CleanOrphans(svc.Favorites.List())
					if err != nil {
						return errors.New(errmsg.Format(errmsg.OpCacheClean, err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned files.\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Download every favorite missing from the cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return withServices(func(svc *app.Services) error {
					r, err := svc.Favorites.Reconcile(ctx)
					fmt.Fprintf(cmd.OutOrStdout(), "Cached: %d, downloaded: %d, failed: %d\n", r.Cached, r.Fetched, r.Failed)
					if err != nil {
						return errors.New(errmsg.Format(errmsg.OpFavoriteReconcile, err))
					}
					return nil
				})
			},
		},
	)
	return cmd
}
