package certificates

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Data holds everything printed on a retirement certificate.
type Data struct {
	CertificateID string
	CompanyName   string
	CompanyWallet string
	ProjectName   string
	EcosystemType string
	Amount        int64
	SettlementRef string
	RetiredAt     time.Time
}

// Generator produces PDF retirement certificates
type Generator struct {
	outputDir string
}

// NewGenerator creates a new certificate generator writing into outputDir.
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir}
}

// GenerateRetirement renders a certificate for a completed retirement and
// returns the path of the written file.
func (g *Generator) GenerateRetirement(data Data) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create certificate directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	pdf.SetDrawColor(34, 85, 51)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, pageWidth-20, pageHeight-20, "D")

	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(34, 85, 51)
	pdf.CellFormat(0, 14, "Certificate of Carbon Credit Retirement", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate No. %s", data.CertificateID), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, data.CompanyName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "has permanently retired", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(34, 85, 51)
	pdf.CellFormat(0, 12, fmt.Sprintf("%d CCT", data.Amount), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "of verified blue carbon credits", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	g.detailLine(pdf, "Project", data.ProjectName)
	g.detailLine(pdf, "Ecosystem", data.EcosystemType)
	g.detailLine(pdf, "Beneficiary Wallet", data.CompanyWallet)
	g.detailLine(pdf, "Settlement Reference", data.SettlementRef)
	g.detailLine(pdf, "Retired On", data.RetiredAt.Format("2 January 2006 15:04 UTC"))

	pdf.Ln(12)
	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, "Retired credits are removed from circulation and cannot be transferred or resold.", "", 1, "C", false, 0, "")

	path := filepath.Join(g.outputDir, fmt.Sprintf("retirement-%s.pdf", data.CertificateID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write certificate: %w", err)
	}
	return path, nil
}

func (g *Generator) detailLine(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(64, 64, 64)
	pdf.CellFormat(60, 7, label+":", "", 0, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, " "+value, "", 1, "L", false, 0, "")
}
