package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"voicecast/internal/results"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect stored analysis results",
	}
	cmd.AddCommand(newResultsShowCommand(ctx))
	cmd.AddCommand(newResultsPurgeCommand(ctx))
	return cmd
}

type storedChapterView struct {
	BookID     int64     `json:"book_id"`
	ChapterID  int64     `json:"chapter_id"`
	Status     string    `json:"status"`
	LastStep   string    `json:"last_step,omitempty"`
	Characters int       `json:"characters"`
	Dialogs    int       `json:"dialogs"`
	Message    string    `json:"message,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newResultsShowCommand(ctx *commandContext) *cobra.Command {
	var bookID int64
	var chapterID int64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the chapters of a book, or the characters of one chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withResults(func(store *results.Store) error {
				if !cmd.Flags().Changed("chapter") {
					chapters, err := store.Chapters(cmd.Context(), bookID)
					if err != nil {
						return err
					}
					views := make([]storedChapterView, 0, len(chapters))
					for _, ch := range chapters {
						views = append(views, storedChapterView{
							BookID:     ch.BookID,
							ChapterID:  ch.ChapterID,
							Status:     ch.Status,
							LastStep:   ch.LastStep,
							Characters: ch.CharacterCount,
							Dialogs:    ch.DialogCount,
							Message:    ch.Message,
							UpdatedAt:  ch.UpdatedAt,
						})
					}
					if ctx.jsonOutput() {
						return writeJSON(out, views)
					}
					if len(views) == 0 {
						fmt.Fprintf(out, "No results stored for book %d\n", bookID)
						return nil
					}
					rows := make([][]string, 0, len(views))
					for _, v := range views {
						step := v.LastStep
						if step == "" {
							step = "-"
						}
						rows = append(rows, []string{
							strconv.FormatInt(v.ChapterID, 10),
							v.Status,
							step,
							strconv.Itoa(v.Characters),
							strconv.Itoa(v.Dialogs),
							v.UpdatedAt.Local().Format(time.DateTime),
						})
					}
					writeTable(out,
						[]string{"Chapter", "Status", "Last step", "Characters", "Dialogs", "Updated"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
					)
					return nil
				}

				chapter, err := store.Chapter(cmd.Context(), bookID, chapterID)
				if err != nil {
					return err
				}
				if chapter == nil {
					return fmt.Errorf("no results stored for book %d chapter %d", bookID, chapterID)
				}
				characters, err := store.Characters(cmd.Context(), bookID, chapterID)
				if err != nil {
					return err
				}
				view := chapterView{
					BookID:     chapter.BookID,
					ChapterID:  chapter.ChapterID,
					Status:     chapter.Status,
					Message:    chapter.Message,
					Dialogs:    chapter.DialogCount,
					Characters: characterViews(ctx.speakerCatalog(), characters),
				}
				if ctx.jsonOutput() {
					return writeJSON(out, view)
				}
				fmt.Fprintf(out, "Book %d chapter %d: %s\n", view.BookID, view.ChapterID, view.Status)
				renderCharacters(out, view.Characters)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&bookID, "book", 0, "Book identifier")
	cmd.Flags().Int64Var(&chapterID, "chapter", 0, "Chapter identifier")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newResultsPurgeCommand(ctx *commandContext) *cobra.Command {
	var bookID int64

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the stored results of a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withResults(func(store *results.Store) error {
				count, err := store.DeleteBook(cmd.Context(), bookID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chapter(s) for book %d\n", count, bookID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&bookID, "book", 0, "Book identifier")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}
