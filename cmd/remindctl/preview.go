package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
)

func newPreviewCmd(factory runnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Muestra qué facturas recibirían recordatorio, sin enviar",
		Example: `  remindctl preview
  remindctl preview --date 2025-06-30
  remindctl preview --ids 7f1c...,a93e...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dateStr, _ := cmd.Flags().GetString("date")
			ids, _ := cmd.Flags().GetStringSlice("ids")

			var req dto.PreviewRequest
			if dateStr != "" {
				d, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("fecha inválida, use YYYY-MM-DD: %w", err)
				}
				req.Date = &d
			}
			req.InvoiceIDs = ids

			svc, closeFn, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String("date", "", "Fecha a simular (YYYY-MM-DD, default: hoy)")
	cmd.Flags().StringSlice("ids", nil, "Facturas específicas (ignora la fecha del próximo recordatorio)")
	return cmd
}

func printPreview(w io.Writer, res *dto.PreviewResult) error {
	fmt.Fprintf(w, "Fecha: %s  candidatos: %d  excluidas: %d\n\n", res.Date, len(res.Items), len(res.Excluded))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTURA\tCLIENTE\tVENCE\tDÍAS\tTRAMO\tSALDO\tASUNTO")
	for _, it := range res.Items {
		subject := it.Subject
		if it.Error != "" {
			subject = "ERROR: " + it.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s %s\t%s\n",
			it.InvoiceNumber, it.ClientName, it.DueDate, it.DaysUntilDue, it.Bucket, it.Currency, it.BalanceDue, subject)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printExcluded(w, res.Excluded)
	return nil
}

func printExcluded(w io.Writer, excluded []dto.ExcludedInvoice) {
	if len(excluded) == 0 {
		return
	}
	parts := make([]string, 0, len(excluded))
	for _, e := range excluded {
		parts = append(parts, e.InvoiceID+" ("+e.Reason+")")
	}
	fmt.Fprintf(w, "\nExcluidas: %s\n", strings.Join(parts, ", "))
}
