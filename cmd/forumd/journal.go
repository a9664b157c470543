package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/repository"
	sqliteRepo "github.com/sakif/forum/internal/repository/sqlite"
)

var journalFlags struct {
	kind   string
	actor  string
	entity string
	since  time.Duration
	limit  int
	offset int
	json   bool
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recorded write events, newest first",
	Example: `  forumd journal --kind thread.add --limit 20
  forumd journal --actor 0b8f...e1 --since 24h --json`,
	RunE: runJournal,
}

func init() {
	f := journalCmd.Flags()
	f.StringVar(&journalFlags.kind, "kind", "", "only events of this kind, e.g. user.add")
	f.StringVar(&journalFlags.actor, "actor", "", "only events caused by this user id")
	f.StringVar(&journalFlags.entity, "entity", "", "only events about this entity id")
	f.DurationVar(&journalFlags.since, "since", 0, "only events from the last duration, e.g. 2h")
	f.IntVar(&journalFlags.limit, "limit", 50, "maximum number of events")
	f.IntVar(&journalFlags.offset, "offset", 0, "events to skip")
	f.BoolVar(&journalFlags.json, "json", false, "print one JSON record per line")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	if cfg.Journal.Path == "" {
		return errors.New("journal is disabled (journal.path is empty)")
	}
	opts := repository.ListOptions{
		Kind:   observer.Kind(journalFlags.kind),
		Limit:  journalFlags.limit,
		Offset: journalFlags.offset,
	}
	var err error
	if opts.Actor, err = model.ParseID(journalFlags.actor); err != nil {
		return fmt.Errorf("--actor: %w", err)
	}
	if opts.Entity, err = model.ParseID(journalFlags.entity); err != nil {
		return fmt.Errorf("--entity: %w", err)
	}
	if journalFlags.since > 0 {
		opts.Since = time.Now().UTC().Add(-journalFlags.since)
	}

	db, err := sqliteRepo.New(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if journalFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	return printRecords(cmd, records)
}

func printRecords(cmd *cobra.Command, records []repository.Record) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tKIND\tACTOR\tENTITY\tOLD\tNEW")
	for _, rec := range records {
		e := rec.Event
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.At.Format(time.RFC3339), e.Kind, shortID(e.Actor), shortID(e.Entity), clip(e.Old), clip(e.New))
	}
	return tw.Flush()
}

func shortID(id model.ID) string {
	if id.IsZero() {
		return "-"
	}
	return id.Compact()[:8]
}

// clip keeps table rows on one line.
func clip(s string) string {
	const width = 40
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}
