package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"imgurdl/pkg/album"
	"imgurdl/pkg/auth"
	apperrors "imgurdl/pkg/errors"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, footer []string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	if !colorEnabled {
		tw.Style().Color = table.ColorOptionsDefault
	}

	tw.AppendHeader(toRow(headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(footer) > 0 {
		tw.AppendFooter(toRow(footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func toRow(cells []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

// RenderSummary renders the end-of-run album table
func RenderSummary(s *album.Summary, elapsed time.Duration) string {
	headers := []string{"Album", "Name", "Images", "Saved", "Failed", "Size", "Status"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(s.Albums))
	for _, a := range s.Albums {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			strconv.Itoa(a.Images),
			strconv.Itoa(len(a.Saved)),
			strconv.Itoa(a.Failed),
			FormatBytes(a.Bytes),
			albumStatus(a),
		})
	}

	footer := []string{
		fmt.Sprintf("%d albums", len(s.Albums)),
		FormatDuration(elapsed),
		"",
		strconv.Itoa(s.SavedCount()),
		strconv.Itoa(s.FailedCount()),
		FormatBytes(s.Bytes()),
		fmt.Sprintf("%d skipped", s.SkippedCount()),
	}
	return renderTable(headers, rows, aligns, footer)
}

func albumStatus(a *album.AlbumResult) string {
	switch {
	case a.Skipped():
		status := "skipped: " + string(apperrors.TypeOf(a.Err))
		if code := apperrors.CodeOf(a.Err); code != 0 {
			status += " " + strconv.Itoa(code)
		}
		return Red(status)
	case a.Failed > 0:
		return Yellow(fmt.Sprintf("partial (%d failed)", a.Failed))
	default:
		return Green("ok")
	}
}

// RenderProfiles renders stored credential profiles with secrets masked
func RenderProfiles(profiles []*auth.Profile) string {
	headers := []string{"Profile", "Client ID", "Client Secret", "Updated"}
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		masked := auth.SanitizeProfile(p)
		updated := "-"
		if !p.LastModified.IsZero() {
			updated = p.LastModified.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{masked.Name, masked.ClientID, masked.ClientSecret, updated})
	}
	return renderTable(headers, rows, nil, nil)
}
