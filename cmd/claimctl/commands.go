package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/novacarriers/claimdesk/internal/model"
	"github.com/novacarriers/claimdesk/internal/store"
)

var (
	listStatus  string
	exportOut   string
	importForce bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <claim-id>",
	Short: "Print one claim as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "List pending reminders, overdue first",
	Args:  cobra.NoArgs,
	RunE:  runReminders,
}

var financeCmd = &cobra.Command{
	Use:   "finance",
	Short: "Print financial totals per currency",
	Args:  cobra.NoArgs,
	RunE:  runFinance,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole collection as a claims.json document",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a claims.json document into the selected backend",
	Long: `Load a claims.json document into the selected backend.

Combined with export this moves a collection between backends:

  claimctl export -b file -o claims.json
  claimctl import -b postgres claims.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func openStore(cmd *cobra.Command) (*store.Store, func(), error) {
	b, closeFn, err := openBackend(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return store.New(b), closeFn, nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	claims, err := s.ListClaims(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTAGE\tVESSEL\tOPEN TASKS\tCREATED")
	for _, c := range claims {
		if listStatus != "" && string(c.Meta.Status) != listStatus {
			continue
		}
		open := 0
		for _, t := range c.Tasks {
			if t.Status == model.TaskOpen {
				open++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Meta.Status, c.Meta.Stage, c.Report.Vessel, open, c.CreatedAt)
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	c, err := s.GetClaim(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), c)
}

func runReminders(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	views, err := s.ListPendingReminders(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLAIM\tREMINDER\tDUE\tCHANNEL\tTO\tSUBJECT")
	for _, v := range views {
		due := v.Reminder.DueAt
		if v.Overdue {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ClaimID, v.Reminder.ID, due, v.Reminder.Channel, v.Reminder.To, v.Reminder.Subject)
	}
	return tw.Flush()
}

func runFinance(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	totals, err := s.FinanceSummary(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CURRENCY\tCLAIMS\tRESERVE\tPAID\tEXPOSURE\t")
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t\n", t.Currency, t.Claims, t.Reserve, t.Paid, t.Exposure)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	b, closeFn, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	snap, err := b.Load(cmd.Context())
	if err != nil {
		return err
	}

	if exportOut == "" {
		err = store.WriteSnapshot(cmd.OutOrStdout(), snap)
	} else {
		err = writeSnapshotFile(exportOut, snap)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d claims (counter %d)\n", len(snap.Claims), snap.Counter)
	return nil
}

// writeSnapshotFile writes snap to path. A failed close means the document
// may be incomplete and is reported as an error.
func writeSnapshotFile(path string, snap *model.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeAndClose(f, snap); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func writeAndClose(w io.WriteCloser, snap *model.Snapshot) error {
	if err := store.WriteSnapshot(w, snap); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := store.ReadSnapshot(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	b, closeFn, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	existing, err := b.Load(cmd.Context())
	if err != nil {
		return err
	}
	if len(existing.Claims) > 0 && !importForce {
		return fmt.Errorf("backend already holds %d claims; use --force to replace them", len(existing.Claims))
	}
	// Never move the counter backwards past ids already issued.
	if existing.Counter > snap.Counter {
		snap.Counter = existing.Counter
	}

	if err := b.Save(cmd.Context(), snap); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "imported %d claims (counter %d)\n", len(snap.Claims), snap.Counter)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
