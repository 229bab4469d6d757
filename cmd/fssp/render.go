package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/nexconsult/fssp-api/internal/models"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
)

var caseHeaders = []string{"#", "Region", "Debtor", "Proceeding", "Document", "Termination", "Debt", "Office", "Bailiff"}

func renderResult(cmd *cobra.Command, format string, result *models.SearchResult) error {
	if format == formatJSON {
		items := result.Items
		if items == nil {
			items = models.CaseList{}
		}
		return writeJSON(cmd, items)
	}

	out := cmd.OutOrStdout()
	if len(result.Items) == 0 {
		_, err := fmt.Fprintln(out, "No enforcement proceedings found")
		return err
	}

	if _, err := fmt.Fprintln(out, renderCases(result.Items)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d record(s)\n", result.Count)
	return err
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderCases(cases models.CaseList) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(caseHeaders))
	for i, h := range caseHeaders {
		header[i] = h
	}
	tw.AppendHeader(header)

	for i, c := range cases {
		region := c.RegionName()
		if region == "" {
			region = "-"
		}
		tw.AppendRow(table.Row{i + 1, region, c.Debtor, c.ProceedingNumber, c.Document, c.TerminationReason, c.Debt, c.Office, c.Bailiff})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 30},
		{Number: 5, WidthMax: 30},
		{Number: 6, WidthMax: 25},
		{Number: 8, WidthMax: 30},
	})

	return tw.Render()
}
