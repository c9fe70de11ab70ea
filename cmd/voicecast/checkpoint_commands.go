package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"voicecast/internal/checkpoint"
	"voicecast/internal/extraction"
)

// stageOrder mirrors the pipeline stage list for labelling checkpoints.
var stageOrder = []string{
	extraction.CharacterStageName,
	extraction.DialogStageName,
	extraction.VoiceStageName,
}

func stageLabel(step int) string {
	if step < 0 {
		return "none"
	}
	if step < len(stageOrder) {
		return stageOrder[step]
	}
	return fmt.Sprintf("step %d", step)
}

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and remove resumable analysis checkpoints",
	}
	cmd.AddCommand(newCheckpointListCommand(ctx))
	cmd.AddCommand(newCheckpointDeleteCommand(ctx))
	cmd.AddCommand(newCheckpointPurgeCommand(ctx))
	return cmd
}

type checkpointView struct {
	BookID        int64     `json:"book_id"`
	ChapterID     int64     `json:"chapter_id"`
	CompletedStep string    `json:"completed_step"`
	Characters    int       `json:"characters"`
	Dialogs       int       `json:"dialogs"`
	SavedAt       time.Time `json:"saved_at"`
	Expired       bool      `json:"expired"`
	Corrupt       bool      `json:"corrupt"`
	Path          string    `json:"path"`
}

func newCheckpointListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored checkpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.checkpointStore(nil)
			if err != nil {
				return err
			}
			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			views := checkpointViews(summaries)
			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No checkpoints stored")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				state := "resumable"
				switch {
				case v.Corrupt:
					state = "corrupt"
				case v.Expired:
					state = "expired"
				}
				saved := "-"
				if !v.SavedAt.IsZero() {
					saved = v.SavedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					strconv.FormatInt(v.BookID, 10),
					strconv.FormatInt(v.ChapterID, 10),
					v.CompletedStep,
					strconv.Itoa(v.Characters),
					strconv.Itoa(v.Dialogs),
					saved,
					state,
				})
			}
			writeTable(out,
				[]string{"Book", "Chapter", "Completed", "Characters", "Dialogs", "Saved", "State"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			)
			return nil
		},
	}
}

func checkpointViews(summaries []checkpoint.Summary) []checkpointView {
	views := make([]checkpointView, 0, len(summaries))
	for _, s := range summaries {
		step := stageLabel(s.LastCompletedStep)
		if s.Corrupt {
			step = "-"
		}
		views = append(views, checkpointView{
			BookID:        s.OwnerID,
			ChapterID:     s.SubID,
			CompletedStep: step,
			Characters:    s.Characters,
			Dialogs:       s.TotalDialogs,
			SavedAt:       s.Timestamp,
			Expired:       s.Expired,
			Corrupt:       s.Corrupt,
			Path:          s.Path,
		})
	}
	return views
}

func newCheckpointDeleteCommand(ctx *commandContext) *cobra.Command {
	var bookID int64
	var chapterID int64

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the checkpoint of one chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.checkpointStore(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(store.Path(bookID, chapterID)); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No checkpoint for book %d chapter %d\n", bookID, chapterID)
				return nil
			}
			if err := store.Delete(cmd.Context(), bookID, chapterID); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted checkpoint for book %d chapter %d\n", bookID, chapterID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&bookID, "book", 0, "Book identifier")
	cmd.Flags().Int64Var(&chapterID, "chapter", 0, "Chapter identifier")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("chapter")
	return cmd
}

func newCheckpointPurgeCommand(ctx *commandContext) *cobra.Command {
	var bookID int64

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every checkpoint of a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.checkpointStore(nil)
			if err != nil {
				return err
			}
			count, err := store.DeleteAll(cmd.Context(), bookID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d checkpoint(s) for book %d\n", count, bookID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&bookID, "book", 0, "Book identifier")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}
