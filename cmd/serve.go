package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/graest/orcamento/internal/server"

	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveTemplate string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve plans and their workbooks over HTTP",
	Long: "Endpoints:\n" +
		"  GET /healthz\n" +
		"  GET /v1/status\n" +
		"  GET /v1/plans\n" +
		"  GET /v1/plans/{id}\n" +
		"  GET /v1/plans/{id}/xlsx",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default server.addr from config)")
	serveCmd.Flags().StringVar(&serveTemplate, "template", "", "Template workbook (default template.path from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	tpl := serveTemplate
	if tpl == "" {
		tpl = cfg.Template.Path
	}
	if _, err := os.Stat(tpl); err != nil {
		return fmt.Errorf("template %q: %w", tpl, err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := server.New(server.Config{
		Addr:         addr,
		TemplatePath: tpl,
		Plans:        st,
		Logger:       logger,
	})
	return svc.Run(ctx)
}
