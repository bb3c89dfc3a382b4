package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "Manage file categories",
	Long: `List and edit the categories that route files into sub-folders.

Categories are matched in order: the first category listing a file's
extension wins. Files without an extension go to "unclassified"; files
whose extension matches no category stay where they are.`,
	RunE: runCategoriesList,
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add NAME EXT...",
	Short: "Add a category or extend an existing one",
	Example: `  tidy categories add scans tif tiff
  tidy categories add pdf .PDF`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCategoriesAdd,
}

var categoriesRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm"},
	Short:   "Remove a category",
	Args:    cobra.ExactArgs(1),
	RunE:    runCategoriesRemove,
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesAddCmd)
	categoriesCmd.AddCommand(categoriesRemoveCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategoriesList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(cfg.Categories))
	for i, c := range cfg.Categories {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Name, strings.Join(c.Extensions, ", ")})
	}
	fmt.Println(renderTable([]string{"#", "Category", "Extensions"}, rows, []columnAlign{alignRight}))
	printVerbose("Files without an extension go to %q.", types.Unclassified)
	return nil
}

func runCategoriesAdd(_ *cobra.Command, args []string) error {
	return editCategories(func(c []types.Category) ([]types.Category, error) {
		return addCategory(c, args[0], args[1:])
	}, fmt.Sprintf("Category %q updated.", args[0]))
}

func runCategoriesRemove(_ *cobra.Command, args []string) error {
	return editCategories(func(c []types.Category) ([]types.Category, error) {
		return removeCategory(c, args[0])
	}, fmt.Sprintf("Category %q removed.", args[0]))
}

// editCategories applies edit to the categories of the config file and
// saves the result.
func editCategories(edit func([]types.Category) ([]types.Category, error), done string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	updated, err := edit(cfg.Categories)
	if err != nil {
		return err
	}
	cfg.Categories = updated

	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	printInfo("%s", done)
	printVerbose("Saved %s", path)
	return nil
}

// addCategory appends extensions to the category called name, matched
// case-insensitively, or appends a new category. Extensions already
// claimed by another category are rejected.
func addCategory(categories []types.Category, name string, exts []string) ([]types.Category, error) {
	out := cloneCategories(categories)

	idx := slices.IndexFunc(out, func(c types.Category) bool { return strings.EqualFold(c.Name, name) })
	if idx < 0 {
		out = append(out, types.Category{Name: name})
		idx = len(out) - 1
	}

	for _, ext := range exts {
		ext = types.NormalizeExtension(ext)
		if ext == "" {
			continue
		}
		for i, c := range out {
			if i != idx && c.Matches(ext) {
				return nil, fmt.Errorf("extension %q already belongs to category %q", ext, c.Name)
			}
		}
		if !out[idx].Matches(ext) {
			out[idx].Extensions = append(out[idx].Extensions, ext)
		}
	}

	if err := types.ValidateCategories(out); err != nil {
		return nil, err
	}
	return out, nil
}

// removeCategory drops the category called name, matched
// case-insensitively.
func removeCategory(categories []types.Category, name string) ([]types.Category, error) {
	idx := slices.IndexFunc(categories, func(c types.Category) bool { return strings.EqualFold(c.Name, name) })
	if idx < 0 {
		return nil, fmt.Errorf("no category named %q", name)
	}

	out := cloneCategories(categories)
	out = slices.Delete(out, idx, idx+1)
	if err := types.ValidateCategories(out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneCategories(categories []types.Category) []types.Category {
	out := make([]types.Category, len(categories))
	for i, c := range categories {
		out[i] = types.Category{Name: c.Name, Extensions: slices.Clone(c.Extensions)}
	}
	return out
}
