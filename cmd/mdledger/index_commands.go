package main

import (
	"fmt"
	"strings"

	"github.com/dgallion1/mdledger/internal/render"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "index PATH",
		Short: "Index markdown file headers for structure-aware navigation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.indexer.Index(args[0], recursive)
			if err != nil {
				return err
			}
			if res.FilesScanned == 0 {
				fmt.Printf("No .md files found in %s\n", args[0])
				return nil
			}
			fmt.Printf("Indexed %d file(s), %d total headers\n", res.FilesIndexed, res.HeadersIndexed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recursively scan subdirectories for .md files")
	return cmd
}

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers FILE",
		Short: "Display the header hierarchy of a markdown file",
		Long: `Show the full H1-H6 header tree with line ranges. Reindexes first if the
file changed since it was last indexed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sections, err := a.indexer.Headers(args[0])
			if err != nil {
				return err
			}
			if len(sections) == 0 {
				fmt.Println("No headers found")
				return nil
			}

			fmt.Printf("\n%s:\n", sections[0].File)
			for _, s := range sections {
				indent := strings.Repeat("  ", s.Level-1)
				fmt.Printf("%sH%d %q lines %d-%d\n", indent, s.Level, s.Text, s.LineStart, s.LineEnd)
			}
			return nil
		},
	}
}

func newFindSectionCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "find-section QUERY",
		Short: "Find sections by header name (case-insensitive substring)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			matches, err := a.indexer.FindSection(args[0], file)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Printf("No sections found matching %q\n", args[0])
				return nil
			}
			for _, m := range matches {
				fmt.Printf("%s:%d-%d (H%d %q)\n", m.File, m.LineStart, m.LineEnd, m.Level, m.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "limit search to a specific file")
	return cmd
}

func newFindContentCmd() *cobra.Command {
	var file string
	var contextLines int

	cmd := &cobra.Command{
		Use:   "find-content QUERY",
		Short: "Search file content with full section hierarchy context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("context") {
				contextLines = a.cfg.DefaultContext
			}

			matches, err := a.indexer.FindContent(args[0], file, contextLines)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Printf("No content found matching %q\n", args[0])
				return nil
			}

			for _, m := range matches {
				fmt.Printf("\n%s:%d\n", m.File, m.LineNo)
				if m.Section != nil {
					fmt.Printf("  Section: %s\n", strings.Join(m.Path, " > "))
					fmt.Printf("  Range: lines %d-%d\n", m.Section.LineStart, m.Section.LineEnd)
				} else {
					fmt.Println("  Section: (not in any indexed section)")
				}
				fmt.Println("  Context:")
				for _, line := range m.Context {
					fmt.Printf("    %s\n", line)
				}
			}
			fmt.Printf("\nFound %d match(es)\n", len(matches))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "limit search to a specific file")
	cmd.Flags().IntVarP(&contextLines, "context", "C", 1, "context lines before/after each match")
	return cmd
}

func newShowCmd() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "show FILE START END",
		Short: "Print a line range of a document, optionally rendered to HTML",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var start, end int
			if _, err := fmt.Sscanf(args[1], "%d", &start); err != nil {
				return fmt.Errorf("invalid start line %q", args[1])
			}
			if _, err := fmt.Sscanf(args[2], "%d", &end); err != nil {
				return fmt.Errorf("invalid end line %q", args[2])
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := a.indexer.SectionContent(args[0], start, end)
			if err != nil {
				return err
			}

			if asHTML {
				html, err := render.HTML(lines)
				if err != nil {
					return err
				}
				fmt.Print(html)
				return nil
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "render the range as HTML")
	return cmd
}
