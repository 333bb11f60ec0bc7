package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pradeepp3/CODATS/pkg/api"
	"github.com/pradeepp3/CODATS/pkg/language"
	"github.com/pradeepp3/CODATS/pkg/rules"
)

func newRulesCmd() *cobra.Command {
	var severity, format string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the vulnerability rule catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := rules.All()
			if severity != "" {
				cats = rules.BySeverity(severity)
				if len(cats) == 0 {
					return fmt.Errorf("no rules with severity %q", severity)
				}
			}

			infos := make([]api.RuleInfo, 0, len(cats))
			for _, c := range cats {
				infos = append(infos, api.NewRuleInfo(c))
			}

			return writeListing(cmd.OutOrStdout(), format, infos, func(w io.Writer) {
				for _, r := range infos {
					fmt.Fprintf(w, "%-24s %-9s %2d patterns  %s\n", r.ID, r.Severity, r.PatternCount, r.Name)
				}
			})
		},
	}
	cmd.Flags().StringVar(&severity, "severity", "", "only list rules of this severity")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := language.Supported()
			return writeListing(cmd.OutOrStdout(), format, langs, func(w io.Writer) {
				for _, l := range langs {
					fmt.Fprintf(w, "%-12s %-12s %s\n", l.ID, l.Name, strings.Join(l.Extensions, " "))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

// writeListing writes v as json or yaml, or calls text for the text format.
func writeListing(w io.Writer, format string, v interface{}, text func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "", "text":
		text(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
