package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"statement-categorizer/internal/models"
)

var learnCmd = &cobra.Command{
	Use:   "learn <merchant> <category>",
	Short: "Teach the category of a merchant",
	Long: `Record that every transaction of a merchant belongs to a category. The
merchant must be written exactly as it appears in categorized output; the
correction applies to that exact name only. Learning the same merchant again
replaces its category.

Examples:
  categorizer learn "Farmacia Del Barrio" salud
  categorizer learn Lider hogar`,
	Args: cobra.ExactArgs(2),
	RunE: runLearn,
}

func init() {
	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	merchant, id := args[0], models.CategoryID(args[1])
	if err := s.engine.Learn(merchant, id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Learned: %s -> %s\n", merchant, id)
	return nil
}
