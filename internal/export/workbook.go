// Package export reads batch input files and writes batch results to an
// xlsx workbook.
package export

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

const (
	SheetSummary  = "Summary"
	SheetContacts = "Contacts"
	SheetOutreach = "Outreach"
)

var (
	summaryHeader  = []string{"Company", "Domain", "Industry", "Size", "Status", "Overall", "Recommendation", "Confidence", "Signals", "Sources", "Error"}
	contactsHeader = []string{"Company", "Name", "Title", "Department", "Priority", "Email", "LinkedIn"}
	outreachHeader = []string{"Company", "Subject", "Body", "Connection Note", "Follow-up", "Day 1", "Day 3", "Day 7"}
)

// Workbook builds the Summary, Contacts and Outreach sheets for states.
func Workbook(states []model.PipelineState) (*xlsx.File, error) {
	f := xlsx.NewFile()
	summary, err := addSheet(f, SheetSummary, summaryHeader)
	if err != nil {
		return nil, err
	}
	contacts, err := addSheet(f, SheetContacts, contactsHeader)
	if err != nil {
		return nil, err
	}
	outreach, err := addSheet(f, SheetOutreach, outreachHeader)
	if err != nil {
		return nil, err
	}

	for _, st := range states {
		writeSummary(summary, st)
		if st.Research != nil {
			for _, c := range st.Research.Contacts {
				addRow(contacts, st.Company, c.Name, c.Title, string(c.Department), string(c.Priority), c.Email, c.LinkedIn)
			}
		}
		if o := st.Outreach; o != nil {
			addRow(outreach, st.Company,
				o.Email.Subject, o.Email.Body,
				o.LinkedIn.ConnectionNote, o.LinkedIn.FollowUpMessage,
				o.Sequence.Day1.Subject, o.Sequence.Day3.Subject, o.Sequence.Day7.Subject,
			)
		}
	}
	return f, nil
}

// WriteWorkbook saves the workbook for states to path.
func WriteWorkbook(path string, states []model.PipelineState) error {
	f, err := Workbook(states)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func writeSummary(sheet *xlsx.Sheet, st model.PipelineState) {
	row := sheet.AddRow()
	cell := func(s string) { row.AddCell().SetString(s) }

	cell(st.Company)
	if st.Research != nil {
		cell(st.Research.Company.Domain)
		cell(st.Research.Company.Industry)
		cell(string(st.Research.Company.Size))
	} else {
		cell("")
		cell("")
		cell("")
	}
	cell(string(st.Status))
	if st.Score != nil {
		row.AddCell().SetInt(st.Score.Overall)
		cell(string(st.Score.Recommendation))
		cell(string(st.Score.ConfidenceLevel))
	} else {
		cell("")
		cell("")
		cell("")
	}
	if st.Research != nil {
		row.AddCell().SetInt(len(st.Research.Signals))
	} else {
		cell("")
	}
	cell(sources(st.Agents))
	cell(st.Error)
}

// sources renders "research=dataset, scoring=gateway, ...".
func sources(agents []model.AgentStatus) string {
	parts := make([]string, 0, len(agents))
	for _, a := range agents {
		if a.Source != "" {
			parts = append(parts, string(a.Name)+"="+string(a.Source))
		}
	}
	return strings.Join(parts, ", ")
}

func addSheet(f *xlsx.File, name string, header []string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: add sheet %s", name)
	}
	row := sheet.AddRow()
	for _, h := range header {
		c := row.AddCell()
		c.SetString(h)
		c.GetStyle().Font.Bold = true
	}
	return sheet, nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
