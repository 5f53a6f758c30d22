package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo a stdout. Solo contadores:
// los fingerprints internos nunca se imprimen.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resumen del ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, report domain.ReconcileReport) error {
	if c.table {
		c.printTable(report)
	} else {
		c.printCompact(report)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.ReconcileReport) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] %d legs → settled:%d skipped:%d missing:%d unsettled:%d failed:%d\n",
		now, r.ProcessedLegs, r.InsertedEvents, r.SkippedIdempotent,
		r.MissingResults, r.UnsettledLegs, len(r.Failed))
}

// printTable imprime el reporte completo, con una tabla de fallos si los hay.
func (c *Console) printTable(r domain.ReconcileReport) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] reconciliation report\n", now)

	table := tablewriter.NewWriter(c.out)
	table.Header("Processed", "Settled", "Skipped (idem)", "Missing result", "Unsettled", "Failed")
	table.Append(
		fmt.Sprintf("%d", r.ProcessedLegs),
		fmt.Sprintf("%d", r.InsertedEvents),
		fmt.Sprintf("%d", r.SkippedIdempotent),
		fmt.Sprintf("%d", r.MissingResults),
		fmt.Sprintf("%d", r.UnsettledLegs),
		fmt.Sprintf("%d", len(r.Failed)),
	)
	table.Render()

	if len(r.Failed) == 0 {
		return
	}

	fmt.Fprintln(c.out, "  failed legs:")
	failures := tablewriter.NewWriter(c.out)
	failures.Header("Leg", "Bet", "Error")
	for _, f := range r.Failed {
		failures.Append(f.LegID, f.BetID, f.Err)
	}
	failures.Render()
}

// PrintAuditTrail imprime el historial de una apuesta para diagnóstico.
func (c *Console) PrintAuditTrail(betID string, entries []domain.AuditLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(c.out, "no audit entries for %s\n", betID)
		return
	}

	fmt.Fprintf(c.out, "audit trail for %s:\n", betID)
	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Action", "Detail")
	for _, e := range entries {
		table.Append(
			e.CreatedAt.Format(time.RFC3339),
			string(e.Action),
			auditDetail(e),
		)
	}
	table.Render()
}

// auditDetail arma un resumen legible de la metadata de una entrada.
func auditDetail(e domain.AuditLogEntry) string {
	switch e.Action {
	case domain.AuditCreate:
		return fmt.Sprintf("evidence=%v parser=%v", e.Metadata["evidence_id"], e.Metadata["parser_version"])
	case domain.AuditSettle:
		return fmt.Sprintf("settled_at=%v source=%v", e.Metadata["settled_at"], e.Metadata["source_id"])
	case domain.AuditOverride:
		return fmt.Sprintf("%v → %v by %v: %v",
			e.Metadata["old_value"], e.Metadata["new_value"],
			e.Metadata["actor_id"], e.Metadata["reason"])
	default:
		return fmt.Sprintf("%v", e.Metadata)
	}
}
