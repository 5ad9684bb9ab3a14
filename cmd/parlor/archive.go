package main

import (
	"fmt"
	"os"

	"github.com/parlorgames/parlor/internal/archive"
)

// ArchiveCmd groups the archive subcommands.
type ArchiveCmd struct {
	Show ArchiveShowCmd `cmd:"" help:"Print an archived match"`
	List ArchiveListCmd `cmd:"" help:"List archived matches"`
}

type ArchiveShowCmd struct {
	File string `arg:"" type:"existingfile" help:"Match record (.toml)"`
	Raw  bool   `help:"Print the record as stored"`
}

func (c *ArchiveShowCmd) Run() error {
	rec, err := archive.Load(c.File)
	if err != nil {
		return err
	}
	if c.Raw {
		return archive.Encode(os.Stdout, rec)
	}
	fmt.Println(rec.Summary())
	for i, line := range rec.Actions {
		fmt.Printf("%3d. %s\n", i+1, line)
	}
	return nil
}

type ArchiveListCmd struct {
	Dir  string `type:"path" default:"archive" help:"Archive directory"`
	Game string `enum:"shotgun,cards" default:"shotgun" help:"Game to list"`
}

func (c *ArchiveListCmd) Run() error {
	paths, err := archive.New(c.Dir).List(c.Game)
	if err != nil {
		return err
	}
	for _, path := range paths {
		rec, err := archive.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Println(rec.Summary())
	}
	return nil
}
