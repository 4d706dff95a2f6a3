package main

import (
	"context"
	"fmt"

	"siacom-console/internal/api"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the admin dashboard counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		stats, err := api.NewAdminAPI(newClients(store), log).DashboardStats(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(stats)
		}
		fmt.Println("Dashboard Gerencial")
		fmt.Printf("  Pacientes:          %d\n", stats.TotalPacientes)
		fmt.Printf("  Cirugías Hoy:       %d\n", stats.CirugiasHoy)
		fmt.Printf("  Cirugías Activas:   %d\n", stats.CirugiasActivas)
		fmt.Printf("  Pacientes Críticos: %d\n", stats.PacientesCriticos)
		return nil
	},
}

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "List patients (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		patients, err := api.NewAdminAPI(newClients(store), log).ListPatients(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(patients)
		}
		for _, p := range patients {
			fmt.Printf("%-6d %-30s %-12s %s\n", p.ID, p.DisplayName(), p.Cedula, p.EPS)
		}
		return nil
	},
}
