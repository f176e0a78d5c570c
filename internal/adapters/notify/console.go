package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const maxDetailLen = 40

// Console imprime reportes del ledger de ofertas.
type Console struct {
	out io.Writer
}

// NewConsole crea un Console que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un Console para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintLedger imprime las filas más recientes del ledger y un resumen por acción.
func (c *Console) PrintLedger(records []domain.OfferRecord) {
	fmt.Fprintf(c.out, "\n╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(c.out, "║                      OFFER LEDGER                            ║\n")
	fmt.Fprintf(c.out, "╚══════════════════════════════════════════════════════════════╝\n\n")

	if len(records) == 0 {
		fmt.Fprintln(c.out, "  No offers recorded yet")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Offer", "Partner", "State", "Action", "Detail")
	for _, r := range records {
		table.Append(
			r.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			r.OfferID,
			r.Partner,
			r.State.String(),
			string(r.Action),
			truncate(r.Detail, maxDetailLen),
		)
	}
	table.Render()

	counts := make(map[domain.OfferAction]int)
	for _, r := range records {
		counts[r.Action]++
	}
	fmt.Fprintf(c.out, "\n── SUMMARY (%d rows, oldest %s) ──\n",
		len(records), age(records[len(records)-1].RecordedAt))
	for _, a := range []domain.OfferAction{
		domain.ActionAccepted,
		domain.ActionConfirmed,
		domain.ActionSettled,
		domain.ActionChanged,
		domain.ActionFailed,
	} {
		fmt.Fprintf(c.out, "  %-10s %d\n", a, counts[a])
	}
	fmt.Fprintln(c.out)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func age(t time.Time) string {
	return time.Since(t).Truncate(time.Minute).String() + " ago"
}
