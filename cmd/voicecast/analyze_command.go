package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"voicecast/internal/analysis"
	"voicecast/internal/config"
	"voicecast/internal/logging"
	"voicecast/internal/pipeline"
	"voicecast/internal/textutil"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var bookID int64
	var chapterID int64

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Find the characters of one chapter and cast their voices",
		Long: "Split a plain-text chapter into paragraphs on blank lines, run character,\n" +
			"dialog and voice extraction, and store the result. An interrupted run\n" +
			"resumes from its last completed stage when the text is unchanged.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paragraphs, err := readParagraphs(args[0])
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			printer := newProgressPrinter(cmd.ErrOrStderr(), rt.logger, !ctx.jsonOutput())
			res := rt.orchestrator.Run(cmd.Context(), rt.request(cmd.Context(), bookID, chapterID, paragraphs, printer))
			printer.finish()
			rt.persist(cmd.Context(), res)

			out := cmd.OutOrStdout()
			view := rt.chapterView(res)
			if ctx.jsonOutput() {
				if err := writeJSON(out, view); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, runSummary(res))
				if res.Status == pipeline.StatusCompleted {
					renderCharacters(out, view.Characters)
				}
			}
			return resultError(res)
		},
	}

	cmd.Flags().Int64Var(&bookID, "book", 0, "Book identifier")
	cmd.Flags().Int64Var(&chapterID, "chapter", 0, "Chapter identifier")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("chapter")
	return cmd
}

func readParagraphs(path string) ([]string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve chapter path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read chapter: %w", err)
	}
	return textutil.SplitParagraphs(string(data)), nil
}

// request wires the pipeline callbacks to the progress printer and the results
// store.
func (r *analysisRuntime) request(ctx context.Context, bookID, chapterID int64, paragraphs []string, printer *progressPrinter) pipeline.Request {
	label := fmt.Sprintf("%d/%d", bookID, chapterID)
	return pipeline.Request{
		OwnerID:    bookID,
		SubID:      chapterID,
		Paragraphs: paragraphs,
		OnProgress: printer.callback(label),
		OnStepCompleted: func(_ int, stepName string, characters []*analysis.Character) error {
			return r.results.SaveStep(ctx, bookID, chapterID, stepName, characters)
		},
	}
}

// persist records the outcome of a run. Interim characters saved after each
// stage are kept when the run did not complete.
func (r *analysisRuntime) persist(ctx context.Context, res pipeline.Result) {
	ctx = context.WithoutCancel(ctx)
	var characters []*analysis.Character
	if res.Status == pipeline.StatusCompleted {
		characters = res.Characters()
	}
	err := r.results.SaveFinal(ctx, res.OwnerID, res.SubID, string(res.Status), res.Message, res.DialogCount, characters)
	if err != nil {
		logging.WarnWithContext(r.logger, "failed to store analysis result", "results_write_failed",
			logging.Int64(logging.FieldOwnerID, res.OwnerID),
			logging.Int64(logging.FieldSubID, res.SubID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the results database is writable"),
			logging.String(logging.FieldImpact, "results show will report a stale status for this chapter"),
		)
	}
}

// chapterView renders res against the catalog the run cast voices from.
func (r *analysisRuntime) chapterView(res pipeline.Result) chapterView {
	return chapterView{
		BookID:     res.OwnerID,
		ChapterID:  res.SubID,
		Status:     string(res.Status),
		Message:    res.Message,
		Dialogs:    res.DialogCount,
		Characters: characterViews(r.catalog, res.Characters()),
	}
}

func runSummary(res pipeline.Result) string {
	summary := fmt.Sprintf("Book %d chapter %d %s: %s", res.OwnerID, res.SubID, res.Status, res.Message)
	if res.ResumedFrom > 0 {
		summary += fmt.Sprintf(" (resumed at step %d)", res.ResumedFrom+1)
	}
	return summary + fmt.Sprintf(" in %s", res.Duration.Round(time.Millisecond))
}

func resultError(res pipeline.Result) error {
	switch res.Status {
	case pipeline.StatusCompleted:
		return nil
	case pipeline.StatusCancelled:
		return fmt.Errorf("book %d chapter %d: %w", res.OwnerID, res.SubID, context.Canceled)
	default:
		if res.Err != nil {
			return fmt.Errorf("book %d chapter %d: %w", res.OwnerID, res.SubID, res.Err)
		}
		return fmt.Errorf("book %d chapter %d: %s", res.OwnerID, res.SubID, res.Message)
	}
}

func printRunSummaries(out io.Writer, runs []pipeline.Result) {
	rows := make([][]string, 0, len(runs))
	for _, res := range runs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", res.SubID),
			string(res.Status),
			fmt.Sprintf("%d", res.CharacterCount),
			fmt.Sprintf("%d", res.DialogCount),
			res.Duration.Round(time.Millisecond).String(),
			res.Message,
		})
	}
	writeTable(out,
		[]string{"Chapter", "Status", "Characters", "Dialogs", "Duration", "Message"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

var errChaptersFailed = errors.New("one or more chapters did not complete")
