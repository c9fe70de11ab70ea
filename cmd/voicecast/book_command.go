package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voicecast/internal/config"
	"voicecast/internal/pipeline"
)

var chapterNumberPattern = regexp.MustCompile(`\d+`)

type chapterFile struct {
	ID   int64
	Path string
}

func newAnalyzeBookCommand(ctx *commandContext) *cobra.Command {
	var bookID int64
	var workers int

	cmd := &cobra.Command{
		Use:   "analyze-book <dir>",
		Short: "Analyze every .txt chapter in a directory",
		Long: "Each *.txt file is one chapter. Chapters are numbered by the first number\n" +
			"in their file name when every name carries a distinct one, otherwise by\n" +
			"their sorted position starting at 1.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, err := chapterFiles(args[0])
			if err != nil {
				return err
			}
			if len(chapters) == 0 {
				return fmt.Errorf("no .txt chapters found in %s", args[0])
			}

			rt, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			printer := newProgressPrinter(cmd.ErrOrStderr(), rt.logger, false)
			requests := make([]pipeline.Request, 0, len(chapters))
			for _, ch := range chapters {
				paragraphs, err := readParagraphs(ch.Path)
				if err != nil {
					return err
				}
				requests = append(requests, rt.request(cmd.Context(), bookID, ch.ID, paragraphs, printer))
			}

			if workers <= 0 {
				workers = rt.cfg.Analysis.Workers
			}
			runs := rt.orchestrator.RunBatch(cmd.Context(), requests, workers)
			for _, res := range runs {
				rt.persist(cmd.Context(), res)
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				views := make([]chapterView, 0, len(runs))
				for _, res := range runs {
					views = append(views, rt.chapterView(res))
				}
				if err := writeJSON(out, views); err != nil {
					return err
				}
			} else {
				printRunSummaries(out, runs)
			}
			return batchError(runs)
		},
	}

	cmd.Flags().Int64Var(&bookID, "book", 0, "Book identifier")
	cmd.Flags().IntVar(&workers, "workers", 0, "Chapters analyzed concurrently (default analysis.workers)")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func chapterFiles(dir string) ([]chapterFile, error) {
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve chapter directory: %w", err)
	}
	entries, err := os.ReadDir(expanded)
	if err != nil {
		return nil, fmt.Errorf("read chapter directory: %w", err)
	}

	var files []chapterFile
	numbered := true
	seen := map[int64]bool{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		file := chapterFile{ID: int64(len(files) + 1), Path: filepath.Join(expanded, entry.Name())}
		files = append(files, file)

		match := chapterNumberPattern.FindString(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		n, err := strconv.ParseInt(match, 10, 64)
		if match == "" || err != nil || seen[n] {
			numbered = false
			continue
		}
		seen[n] = true
	}
	if !numbered {
		return files, nil
	}
	for i := range files {
		base := filepath.Base(files[i].Path)
		n, _ := strconv.ParseInt(chapterNumberPattern.FindString(strings.TrimSuffix(base, filepath.Ext(base))), 10, 64)
		files[i].ID = n
	}
	return files, nil
}

func batchError(runs []pipeline.Result) error {
	failed := 0
	cancelled := false
	for _, res := range runs {
		switch res.Status {
		case pipeline.StatusFailed:
			failed++
		case pipeline.StatusCancelled:
			cancelled = true
		}
	}
	switch {
	case failed > 0:
		return fmt.Errorf("%d of %d chapters failed: %w", failed, len(runs), errChaptersFailed)
	case cancelled:
		return fmt.Errorf("book analysis interrupted: %w", context.Canceled)
	default:
		return nil
	}
}
