package cmd

import (
	"fanfic-downloader/epub"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.epub>",
	Short: "Print the metadata, spine and table of contents of an epub",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	RootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	book, err := epub.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to read epub: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title:      %s\n", book.Title)
	fmt.Fprintf(out, "Author:     %s\n", book.Creator)
	fmt.Fprintf(out, "Language:   %s\n", book.Language)
	fmt.Fprintf(out, "Identifier: %s\n", book.Identifier)
	fmt.Fprintf(out, "Spine:      %s\n", strings.Join(book.Spine, ", "))
	fmt.Fprintf(out, "Contents (%d):\n", len(book.TOC))
	for i, entry := range book.TOC {
		fmt.Fprintf(out, "%4d) %s  [%s]\n", i+1, entry.Title, entry.FileName)
	}
	return nil
}
