// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the gitmount command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/gitmount/gitmount/cmd/gitmount/cli"
	"github.com/gitmount/gitmount/lib/branchfs"
	branchfuse "github.com/gitmount/gitmount/lib/branchfs/fuse"
	"github.com/gitmount/gitmount/lib/clock"
	"github.com/gitmount/gitmount/lib/config"
	"github.com/gitmount/gitmount/lib/object"
)

// Root returns the top-level gitmount command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "gitmount",
		Summary: "Mount a branch of a version-controlled content store as a filesystem",
		Subcommands: []*cli.Command{
			mountCommand(),
		},
	}
}

type mountFlags struct {
	configPath string
	logLevel   string
	persist    bool
	allowOther bool

	// set holds the parsed flag set so Run can distinguish flags the
	// user passed from defaults.
	set *pflag.FlagSet
}

func mountCommand() *cli.Command {
	var flags mountFlags

	return &cli.Command{
		Name:    "mount",
		Summary: "Mount a branch at a mountpoint",
		Usage:   "gitmount mount <repository> <branch> <mountpoint> [flags]",
		Description: `Mount the named branch of a repository as a writable filesystem.

Every directory listing and file read resolves live from the current
branch head. Every mkdir commits immediately; file writes accumulate
in a per-path buffer and, with persistence enabled, commit when the
last handle closes.

The branch must already exist. The process stays in the foreground
until interrupted; SIGINT or SIGTERM unmounts and exits.`,
		Examples: []cli.Example{
			{
				Description: "Mount the main branch",
				Command:     "gitmount mount /srv/repo main /mnt/repo",
			},
			{
				Description: "Mount without committing file writes on close",
				Command:     "gitmount mount /srv/repo main /mnt/repo --persist=false",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.StringVar(&flags.configPath, "config", "", "config file path (or GITMOUNT_CONFIG)")
			flagSet.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
			flagSet.BoolVar(&flags.persist, "persist", true, "commit file contents when the last handle closes")
			flagSet.BoolVar(&flags.allowOther, "allow-other", false, "allow other users to access the mount")
			flags.set = flagSet
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("expected <repository> <branch> <mountpoint>, got %d args", len(args))
			}
			return runMount(args[0], args[1], args[2], &flags)
		},
	}
}

func runMount(repository, branch, mountpoint string, flags *mountFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	// Flags the user passed override the config file.
	if flags.set.Changed("persist") {
		cfg.Mount.PersistOnRelease = flags.persist
	}
	if flags.set.Changed("allow-other") {
		cfg.Mount.AllowOther = flags.allowOther
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	store, err := object.Open(repository)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	session, err := branchfs.NewSession(branchfs.Options{
		Store:  store,
		Branch: branch,
		Author: object.Signature{
			Name:  cfg.Author.Name,
			Email: cfg.Author.Email,
		},
		Clock:            clock.Real(),
		PersistOnRelease: cfg.Mount.PersistOnRelease,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("opening branch %s: %w", branch, err)
	}

	server, err := branchfuse.Mount(branchfuse.Options{
		Mountpoint: mountpoint,
		Session:    session,
		AllowOther: cfg.Mount.AllowOther,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down", "mountpoint", mountpoint)
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed", "error", err)
		}
	}()

	// Wait returns when the kernel connection closes: either our
	// Unmount above or an external umount/fusermount.
	server.Wait()
	logger.Info("unmounted", "mountpoint", mountpoint)
	return nil
}
