package payrollrun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// renderPayslip turns a computed row into a minimal single-page PDF. No
// external renderer: the document is small enough to assemble by hand.
func renderPayslip(run PayrollRun, row PayrollRow) ([]byte, error) {
	var doc ComponentDoc
	if len(row.Components) > 0 {
		if err := json.Unmarshal(row.Components, &doc); err != nil {
			return nil, err
		}
	}

	lines := []string{
		"PAYSLIP",
		fmt.Sprintf("Period: %s %s", run.PeriodKey, run.Code),
		fmt.Sprintf("Employee: %s", row.EmployeeID.String()),
		"",
	}
	for _, item := range doc.Items {
		if item.Employer {
			continue
		}
		prefix := " "
		if item.Kind == ComponentKindContribution || item.Kind == ComponentKindTax || item.Kind == ComponentKindDeduction {
			prefix = "-"
		}
		lines = append(lines, fmt.Sprintf("%s %-28s %14s", prefix, item.Name, item.Amount.StringFixed(2)))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("  %-28s %14s", "Gross Pay", row.GrossPay.StringFixed(2)),
		fmt.Sprintf("  %-28s %14s", "Taxable Pay", row.TaxablePay.StringFixed(2)),
		fmt.Sprintf("  %-28s %14s", "NET PAY", row.NetPay.StringFixed(2)),
	)

	return buildSinglePagePDF(lines)
}

func buildSinglePagePDF(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		lines = []string{"Payslip"}
	}

	var content strings.Builder
	content.WriteString("BT\n/F1 11 Tf\n13 TL\n50 800 Td\n")
	for i, line := range lines {
		escaped := pdfEscape(line)
		if i == 0 {
			content.WriteString(fmt.Sprintf("(%s) Tj\n", escaped))
			continue
		}
		content.WriteString(fmt.Sprintf("T* (%s) Tj\n", escaped))
	}
	content.WriteString("ET")

	stream := content.String()
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects)+1)
	offsets = append(offsets, 0)

	for _, obj := range objects {
		offsets = append(offsets, out.Len())
		out.WriteString(obj)
	}

	xrefStart := out.Len()
	out.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i < len(offsets); i++ {
		out.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	out.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets), xrefStart))

	return out.Bytes(), nil
}

func pdfEscape(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return replacer.Replace(v)
}
