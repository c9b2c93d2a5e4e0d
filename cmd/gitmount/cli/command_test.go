// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "gitmount",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "mount",
				Run: func(args []string) error {
					called = "mount"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"mount"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "mount" {
		t.Errorf("dispatched to %q, want %q", called, "mount")
	}
}

func TestCommand_Execute_PassesPositionalArgs(t *testing.T) {
	var receivedArgs []string

	root := &Command{
		Name: "gitmount",
		Subcommands: []*Command{
			{
				Name: "mount",
				Run: func(args []string) error {
					receivedArgs = args
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"mount", "repo", "main", "/mnt/repo"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := []string{"repo", "main", "/mnt/repo"}
	if len(receivedArgs) != len(want) {
		t.Fatalf("args = %v, want %v", receivedArgs, want)
	}
	for i := range want {
		if receivedArgs[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, receivedArgs[i], want[i])
		}
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var configPath string
	var remaining []string

	command := &Command{
		Name: "mount",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "config file path")
			return flagSet
		},
		Run: func(args []string) error {
			remaining = args
			return nil
		},
	}

	if err := command.Execute([]string{"--config", "/etc/gitmount.yaml", "repo"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if configPath != "/etc/gitmount.yaml" {
		t.Errorf("config = %q", configPath)
	}
	if len(remaining) != 1 || remaining[0] != "repo" {
		t.Errorf("remaining args = %v, want [repo]", remaining)
	}
}

func TestCommand_Execute_UnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "gitmount",
		Subcommands: []*Command{
			{Name: "mount", Run: func(args []string) error { return nil }},
		},
	}

	err := root.Execute([]string{"monut"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "mount"`) {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "mount",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.Bool("persist", false, "")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--presist"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--persist") {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name: "gitmount",
		Subcommands: []*Command{
			{Name: "mount", Run: func(args []string) error { return nil }},
		},
	}

	if err := root.Execute(nil); err == nil {
		t.Fatal("expected error when no subcommand given")
	}
}

func TestCommand_PrintHelp_ListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "gitmount",
		Summary: "Mount version-controlled content as a filesystem",
		Subcommands: []*Command{
			{Name: "mount", Summary: "Mount a branch"},
			{Name: "version", Summary: "Print the version"},
		},
	}

	var buf bytes.Buffer
	root.PrintHelp(&buf)
	help := buf.String()
	for _, want := range []string{"mount", "Mount a branch", "version", "Commands:"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"mount", "mount", 0},
		{"monut", "mount", 2},
		{"moun", "mount", 1},
		{"version", "mount", 7},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
