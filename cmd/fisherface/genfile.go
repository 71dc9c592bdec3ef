package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
)

var genfileCmd = &cobra.Command{
	Use:   "genfile <manifest> <basedir> <name=file>...",
	Short: "Create a training manifest",
	Long: `Create a training manifest from person/file pairs.

Each pair is written as "<classId> <personName> <basedir>/<file>". Class ids
are assigned from 1 in order of first appearance; person names are folded to
ASCII with spaces replaced by underscores.`,
	Example: `  fisherface genfile train.txt ./faces "Jane Doe=jane1.png" "Jane Doe=jane2.png" bob=bob1.png`,
	Args:    cobra.MinimumNArgs(3),
	RunE:    runGenfile,
}

func init() {
	rootCmd.AddCommand(genfileCmd)
}

func runGenfile(cmd *cobra.Command, args []string) error {
	w := dataset.NewManifestWriter(args[1])
	for _, pair := range args[2:] {
		name, file, ok := strings.Cut(pair, "=")
		if !ok || name == "" || file == "" {
			return fmt.Errorf("invalid entry %q, expected name=file", pair)
		}
		w.Add(name, file)
	}

	if err := w.WriteFile(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s created with %d entries\n", args[0], len(w.Entries()))
	return nil
}
