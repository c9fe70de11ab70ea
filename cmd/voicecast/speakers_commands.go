package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voicecast/internal/speakers"
)

func newSpeakersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "speakers",
		Short:       "Browse the speaker catalog",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newSpeakersListCommand(ctx))
	cmd.AddCommand(newSpeakersMatchCommand(ctx))
	cmd.AddCommand(newSpeakersVariantCommand(ctx))
	return cmd
}

type speakerView struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Age    *int   `json:"age"`
	Accent string `json:"accent"`
	Region string `json:"region,omitempty"`
	Pitch  string `json:"pitch"`
	Score  *int   `json:"score,omitempty"`
}

func newSpeakerView(d speakers.Descriptor) speakerView {
	return speakerView{
		ID:     d.ID,
		Name:   d.Name,
		Gender: d.Gender,
		Age:    d.Age,
		Accent: d.Accent,
		Region: d.Region,
		Pitch:  string(d.Pitch),
	}
}

func renderSpeakers(out io.Writer, views []speakerView) {
	if len(views) == 0 {
		fmt.Fprintln(out, "No matching speakers")
		return
	}
	withScore := views[0].Score != nil
	headers := []string{"ID", "Name", "Gender", "Age", "Accent", "Region", "Pitch"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
	if withScore {
		headers = append(headers, "Score")
		aligns = append(aligns, alignRight)
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		age := "-"
		if v.Age != nil {
			age = strconv.Itoa(*v.Age)
		}
		row := []string{strconv.Itoa(v.ID), v.Name, v.Gender, age, v.Accent, v.Region, v.Pitch}
		if withScore && v.Score != nil {
			row = append(row, strconv.Itoa(*v.Score))
		}
		rows = append(rows, row)
	}
	writeTable(out, headers, rows, aligns)
}

func newSpeakersListCommand(ctx *commandContext) *cobra.Command {
	var gender, pitch, accent string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog voices, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := ctx.speakerCatalog()
			filter := speakers.Filter{
				Gender: strings.TrimSpace(gender),
				Pitch:  speakers.Pitch(strings.ToUpper(strings.TrimSpace(pitch))),
				Accent: strings.TrimSpace(accent),
			}
			matches := catalog.Filter(filter)
			views := make([]speakerView, 0, len(matches))
			for _, d := range matches {
				views = append(views, newSpeakerView(d))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			renderSpeakers(cmd.OutOrStdout(), views)
			return nil
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Filter by gender (M or F)")
	cmd.Flags().StringVar(&pitch, "pitch", "", "Filter by pitch category (high, medium, low)")
	cmd.Flags().StringVar(&accent, "accent", "", "Filter by accent")
	return cmd
}

func newSpeakersMatchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var seed uint64

	cmd := &cobra.Command{
		Use:   "match <trait>...",
		Short: "Rank catalog voices against character traits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := ctx.speakerCatalog()
			matcher := speakers.NewMatcher(catalog, speakers.WithSeed(seed))
			tokens := speakers.TraitTokens(args...)
			out := cmd.OutOrStdout()

			ranked := matcher.Rank(tokens)
			if len(ranked) == 0 || ranked[0].Score <= 0 {
				fallback := newSpeakerView(catalog.Default(speakers.GenderFromTokens(tokens)))
				if ctx.jsonOutput() {
					return writeJSON(out, map[string]any{"preference": false, "default": fallback})
				}
				fmt.Fprintf(out, "No voice preference for %q; default voice is %s (id %d)\n", strings.Join(args, " "), fallback.Name, fallback.ID)
				return nil
			}

			best, _ := matcher.Select(tokens)
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}
			views := make([]speakerView, 0, len(ranked))
			for _, s := range ranked {
				view := newSpeakerView(s.Descriptor)
				score := s.Score
				view.Score = &score
				views = append(views, view)
			}
			if ctx.jsonOutput() {
				return writeJSON(out, map[string]any{"preference": true, "selected": best.ID, "ranking": views})
			}
			fmt.Fprintf(out, "Selected %s (id %d, score %d)\n", best.Name, best.ID, best.Score)
			renderSpeakers(out, views)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "Number of ranked voices to show (0 for all)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Tie-break seed")
	return cmd
}

func newSpeakersVariantCommand(ctx *commandContext) *cobra.Command {
	var gender string

	cmd := &cobra.Command{
		Use:   "variant <id>",
		Short: "Find a different-pitch voice of the same gender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid speaker id %q", args[0])
			}
			catalog := ctx.speakerCatalog()
			base, ok := catalog.Lookup(id)
			if !ok {
				return fmt.Errorf("speaker id %d is not in the catalog (0-%d)", id, catalog.Len()-1)
			}
			variant, ok := catalog.PitchVariant(id, strings.TrimSpace(gender))
			if !ok {
				return fmt.Errorf("no pitch variant available for %s", base.Name)
			}
			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, map[string]speakerView{"base": newSpeakerView(base), "variant": newSpeakerView(variant)})
			}
			renderSpeakers(out, []speakerView{newSpeakerView(base), newSpeakerView(variant)})
			return nil
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Override the gender of the variant (M or F)")
	return cmd
}
