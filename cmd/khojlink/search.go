package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mgomes/khojlink/internal/khoj"
	"github.com/mgomes/khojlink/internal/search"
	"github.com/mgomes/khojlink/internal/tui"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		query string
		limit int
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the vault through the Khoj backend",
		Long: `Search the markdown index the Khoj backend built from your vault.
Results open in an interactive list; enter opens the note in Obsidian.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				query = strings.Join(args, " ")
			}
			if strings.TrimSpace(query) == "" {
				return errors.New("a search query is required: khojlink search -q \"query\"")
			}

			vault, err := a.vault(cmd)
			if err != nil {
				return err
			}

			client := khoj.NewClient(a.cfg.KhojURL, a.cfg.RequestTimeout)
			searcher := search.New(client, vault, limit)

			run := func() ([]tui.SearchResult, error) {
				results, err := searcher.Search(cmd.Context(), query)
				if err != nil {
					return nil, err
				}
				return toTUIResults(results), nil
			}

			if plain || !a.interactive() {
				results, err := run()
				if err != nil {
					return err
				}
				printResults(cmd.OutOrStdout(), results)
				return nil
			}

			program := tea.NewProgram(tui.NewSearchModel(query, vault, run))
			_, err = program.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&plain, "plain", false, "print results without the interactive view")

	return cmd
}

func toTUIResults(results []search.Result) []tui.SearchResult {
	out := make([]tui.SearchResult, len(results))
	for i, r := range results {
		out[i] = tui.SearchResult{
			Rank:    r.Rank,
			Score:   r.Score,
			Path:    r.Path,
			Heading: r.Heading,
			Snippet: r.Content,
		}
	}
	return out
}

func printResults(w io.Writer, results []tui.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%d. [%.2f] %s\n", r.Rank, r.Score, r.Path)
		if r.Heading != "" {
			fmt.Fprintf(w, "   %s\n", r.Heading)
		}
		snippet := strings.Join(strings.Fields(r.Snippet), " ")
		if len(snippet) > 160 {
			snippet = snippet[:157] + "..."
		}
		if snippet != "" {
			fmt.Fprintf(w, "   %s\n", snippet)
		}
	}
}
