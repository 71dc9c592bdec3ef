package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage models stored in the data directory",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored models",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a stored model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsRemove,
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsRemoveCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	names, err := store.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("No models stored.")
		return nil
	}

	fmt.Println("Stored models:")
	for _, name := range names {
		m, err := store.Load(store.ModelPath(name))
		if err != nil {
			fmt.Printf("  - %-20s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("  - %-20s %d classes, %d images, trained %s\n",
			name, m.NumClasses(), m.NumImages(), m.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\nTotal: %d model(s)\n", len(names))
	return nil
}

func runModelsRemove(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		if errors.Is(err, model.ErrModelNotFound) {
			return fmt.Errorf("model '%s' does not exist", args[0])
		}
		return err
	}
	fmt.Printf("Model '%s' has been removed.\n", args[0])
	return nil
}
