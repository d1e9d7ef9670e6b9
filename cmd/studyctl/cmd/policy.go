package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/models"
)

var (
	checkAs string
	checkTo []string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect navigation policy files",
}

var policyCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a policy file and print its routes",
	Long: `Validate a navigation policy file and print its role order and routes.
With --to, also print the decision for each target, signed out or with --as ROLE.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := access.LoadPolicy(args[0])
		if err != nil {
			return err
		}
		return describePolicy(cmd.OutOrStdout(), p, checkAs, checkTo)
	},
}

func init() {
	policyCheckCmd.Flags().StringVar(&checkAs, "as", "", "role to evaluate --to targets with (default: signed out)")
	policyCheckCmd.Flags().StringSliceVar(&checkTo, "to", nil, "navigation targets to evaluate")
	policyCmd.AddCommand(policyCheckCmd)
}

func describePolicy(w io.Writer, p *access.Policy, as string, targets []string) error {
	fmt.Fprintf(w, "Roles (low to high): %s\n", strings.Join(p.Hierarchy().Roles(), " < "))
	fmt.Fprintf(w, "Login: %s  Home: %s\n\n", p.LoginPath, p.HomePath)

	paths := make([]string, 0, len(p.Routes))
	for path := range p.Routes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	rows := pterm.TableData{{"Route", "Requires"}}
	for _, path := range paths {
		rule := p.Routes[path]
		requires := "public"
		switch {
		case len(rule.Roles) > 0:
			requires = strings.Join(rule.Roles, ", ")
		case rule.Authenticated:
			requires = "sign-in"
		}
		rows = append(rows, []string{path, requires})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(w).Render(); err != nil {
		return err
	}

	if len(targets) == 0 {
		return nil
	}

	var profile *models.Profile
	who := "signed out"
	if as != "" {
		role, err := resolveRole(p.Hierarchy(), as)
		if err != nil {
			return err
		}
		profile = &models.Profile{ID: "studyctl", Role: role}
		who = role
	}

	fmt.Fprintf(w, "\nAs %s:\n", who)
	for _, target := range targets {
		d := p.Navigate(profile, target)
		line := fmt.Sprintf("  %-20s %s", target, d)
		if loc := p.Location(d); loc != "" {
			line += " -> " + loc
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
