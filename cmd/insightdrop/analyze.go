package main

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/InsightDrop/internal/app"
	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/export"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/pipeline"
)

type analyzeOptions struct {
	offline bool
	pdfPath string
	title   string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Generate a report for a local file and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return analyzeFile(cmd.Context(), cfg, args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Skip the remote model even when OPENAI_API_KEY is set")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "Also write the report as PDF to this path")
	cmd.Flags().StringVar(&opts.title, "title", "", "Report title (defaults to \"Report for <file>\")")
	return cmd
}

// analyzeFile runs the full pipeline against in-memory stores.
func analyzeFile(ctx context.Context, cfg *config.Config, path string, opts analyzeOptions, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	stores := app.MemoryStores()
	owner := &model.User{GitHubID: -1, Login: "local"}
	if err := stores.Users.Upsert(ctx, owner); err != nil {
		return err
	}
	project := &model.Project{Name: "local", OwnerID: owner.ID}
	if err := stores.Projects.Create(ctx, project); err != nil {
		return err
	}

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	pipe := app.NewPipeline(cfg, stores, app.NewAggregator(cfg, opts.offline))
	res, err := pipe.Run(ctx, pipeline.Upload{
		ProjectID:   project.ID,
		UserID:      owner.ID,
		Name:        name,
		ContentType: contentType,
		Title:       opts.title,
		Data:        data,
	})
	if err != nil {
		return err
	}
	rep := res.Report

	if opts.pdfPath != "" {
		f, err := os.Create(opts.pdfPath)
		if err != nil {
			return err
		}
		if err := export.WriteReportPDF(f, rep); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
