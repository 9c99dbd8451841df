package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const timestampLayout = "02/01/2006, 15:04:05"

var participantHeaders = []string{"Full Name", "Email", "Role", "University", "Represents", "Organization Name", "Checked In", "Registered At"}

// ParticipantExporter renders participant lists as downloadable files.
type ParticipantExporter interface {
	Export(format string, meta ExportMeta, participants []Participant) ([]byte, string, string, error)
}

type participantExporter struct{}

func NewParticipantExporter() ParticipantExporter {
	return &participantExporter{}
}

// Export returns the file body, its name and its MIME type.
func (e *participantExporter) Export(format string, meta ExportMeta, participants []Participant) ([]byte, string, string, error) {
	base := fmt.Sprintf("participants_%s_%s", slug(meta.EventTitle), meta.GeneratedAt.Format("20060102_150405"))

	switch format {
	case FormatCSV:
		data, err := e.csv(meta, participants)
		if err != nil {
			return nil, "", "", err
		}
		return data, base + ".csv", "text/csv; charset=utf-8", nil

	case FormatExcel:
		data, err := e.excel(meta, participants)
		if err != nil {
			return nil, "", "", err
		}
		return data, base + ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatPDF:
		data, err := e.pdf(meta, participants)
		if err != nil {
			return nil, "", "", err
		}
		return data, base + ".pdf", "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func (e *participantExporter) csv(meta ExportMeta, participants []Participant) ([]byte, error) {
	var buf bytes.Buffer
	// BOM so spreadsheet apps pick UTF-8
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)

	for _, line := range metaLines(meta, len(participants)) {
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	if err := w.Write(nil); err != nil {
		return nil, err
	}
	if err := w.Write(participantHeaders); err != nil {
		return nil, err
	}
	for _, p := range participants {
		if err := w.Write(participantRecord(p)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *participantExporter) excel(meta ExportMeta, participants []Participant) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Participants"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	row := 1
	for _, line := range metaLines(meta, len(participants)) {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{line[0], line[1]}); err != nil {
			return nil, err
		}
		row++
	}
	row++

	header := make([]interface{}, len(participantHeaders))
	for i, h := range participantHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(participantHeaders), row)
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, bold); err != nil {
		return nil, err
	}

	for _, p := range participants {
		row++
		record := participantRecord(p)
		values := make([]interface{}, len(record))
		for i, v := range record {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *participantExporter) pdf(meta ExportMeta, participants []Participant) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Participants: "+meta.EventTitle))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	for _, line := range metaLines(meta, len(participants))[1:] {
		pdf.Cell(0, 6, tr(line[0]+": "+line[1]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{40, 55, 25, 35, 35, 35, 20, 32}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range participantHeaders {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, p := range participants {
		for i, v := range participantRecord(p) {
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func metaLines(meta ExportMeta, total int) [][]string {
	return [][]string{
		{"Event Report For", meta.EventTitle},
		{"Generated By", meta.GeneratedBy},
		{"Date Generated", meta.GeneratedAt.Format(timestampLayout)},
		{"Total Participants", strconv.Itoa(total)},
	}
}

func participantRecord(p Participant) []string {
	registered := ""
	if p.RegisteredAt != nil {
		registered = p.RegisteredAt.Format(timestampLayout)
	}
	checkedIn := "No"
	if p.HasCheckedIn {
		checkedIn = "Yes"
	}
	return []string{
		p.Name,
		p.Email,
		p.Role,
		deref(p.University),
		deref(p.Represents),
		deref(p.OrganizationName),
		checkedIn,
		registered,
	}
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "event"
	}
	return out
}
