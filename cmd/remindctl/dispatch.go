package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/viajes-backoffice/internal/application/dto"
)

func newDispatchCmd(factory runnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Envía recordatorios (--all para barrido, --ids para facturas puntuales)",
		Example: `  remindctl dispatch --all
  remindctl dispatch --ids 7f1c...,a93e...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			ids, _ := cmd.Flags().GetStringSlice("ids")
			if !all && len(ids) == 0 {
				return errors.New("indique --all o --ids")
			}

			svc, closeFn, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Dispatch(cmd.Context(), dto.DispatchRequest{InvoiceIDs: ids, SendAll: all})
			if err != nil {
				return err
			}
			return printDispatch(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Bool("all", false, "Barrido completo: todas las facturas con recordatorio vencido")
	cmd.Flags().StringSlice("ids", nil, "Facturas específicas")
	cmd.MarkFlagsMutuallyExclusive("all", "ids")
	return cmd
}

func printDispatch(w io.Writer, res *dto.DispatchResult) error {
	fmt.Fprintf(w, "Enviados: %d  fallidos: %d  omitidos: %d\n\n", res.Sent, res.Failed, res.Skipped)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTURA\tDESTINATARIO\tTRAMO\tRESULTADO\tDETALLE")
	for _, d := range res.Details {
		detail := d.Error
		if d.RecordError != "" {
			detail = "auditoría: " + d.RecordError
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.InvoiceNumber, d.Recipient, d.Bucket, d.Outcome, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printExcluded(w, res.Excluded)
	return nil
}
