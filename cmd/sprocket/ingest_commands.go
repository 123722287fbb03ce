package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sprocket/internal/batch"
	"sprocket/internal/csvingest"
	"sprocket/internal/editorial"
	"sprocket/internal/instance"
	"sprocket/internal/session"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Derive creation instances from an external artifact",
	}

	ingestCmd.AddCommand(newIngestCSVCommand(ctx))
	ingestCmd.AddCommand(newIngestEditorialCommand(ctx))
	ingestCmd.AddCommand(newIngestTexturesCommand(ctx))
	ingestCmd.AddCommand(newIngestMoviesCommand(ctx))

	return ingestCmd
}

func newIngestCSVCommand(ctx *commandContext) *cobra.Command {
	var (
		project          string
		folderPath       string
		task             string
		ignoreValidators bool
	)

	cmd := &cobra.Command{
		Use:   "csv <manifest.csv>",
		Short: "Build instances from a CSV manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.openIndex()
			if err != nil {
				return err
			}

			ingestor, err := csvingest.New(cfg, db, logger)
			if err != nil {
				return err
			}
			ingestor.DefaultFolderPath = folderPath
			ingestor.DefaultTaskName = task
			ingestor.IgnoreValidators = ignoreValidators
			instances, err := ingestor.Ingest(cmd.Context(), project, args[0])
			if err != nil {
				return err
			}
			return persistAndReport(cmd, ctx, project, "csv", args[0], instances)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name the manifest belongs to")
	cmd.Flags().StringVar(&folderPath, "folder", "", "Folder path for rows without one")
	cmd.Flags().StringVar(&task, "task", "", "Task name for rows without one")
	cmd.Flags().BoolVar(&ignoreValidators, "ignore-validators", false, "Skip per-column validation patterns")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newIngestEditorialCommand(ctx *commandContext) *cobra.Command {
	var (
		project       string
		folderPath    string
		fps           float64
		offset        int
		workfileStart int
		ignoreEmpty   bool
	)

	cmd := &cobra.Command{
		Use:   "editorial <timeline.(edl|xml)> <media-dir>",
		Short: "Build shot and product instances from an editorial timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.openIndex()
			if err != nil {
				return err
			}

			opts := editorial.Options{
				FolderPath:          folderPath,
				FPS:                 fps,
				TimelineOffset:      offset,
				IgnoreClipNoContent: ignoreEmpty,
			}
			if cmd.Flags().Changed("workfile-start") {
				opts.WorkfileStartFrame = &workfileStart
			}

			builder := editorial.New(cfg, db, logger)
			instances, err := builder.Build(cmd.Context(), project, args[0], args[1], opts)
			if err != nil {
				return err
			}
			return persistAndReport(cmd, ctx, project, "editorial", args[0], instances)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name the timeline belongs to")
	cmd.Flags().StringVar(&folderPath, "folder", "", "Folder path hosting the editorial source instance")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Frame rate hint (required for EDL input)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Frame offset added to every clip position")
	cmd.Flags().IntVar(&workfileStart, "workfile-start", 1001, "Pin frameStart of every clip to this frame")
	cmd.Flags().BoolVar(&ignoreEmpty, "ignore-clip-no-content", false, "Skip clips whose media folder holds no content")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newIngestTexturesCommand(ctx *commandContext) *cobra.Command {
	var (
		project    string
		folderPath string
		task       string
	)

	cmd := &cobra.Command{
		Use:   "textures <dir>",
		Short: "Build texture instances from files in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.openIndex()
			if err != nil {
				return err
			}

			builder := batch.New(cfg, db, logger)
			instances, err := builder.BuildTextures(cmd.Context(), project, folderPath, task, args[0])
			if err != nil {
				return err
			}
			return persistAndReport(cmd, ctx, project, "textures", args[0], instances)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name the textures belong to")
	cmd.Flags().StringVar(&folderPath, "folder", "", "Target folder path")
	cmd.Flags().StringVar(&task, "task", "", "Target task name")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newIngestMoviesCommand(ctx *commandContext) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "movies <dir>",
		Short: "Build review instances from movie files named after folder entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.openIndex()
			if err != nil {
				return err
			}

			builder := batch.New(cfg, db, logger)
			instances, err := builder.BuildMovies(cmd.Context(), project, args[0])
			if err != nil {
				return err
			}
			return persistAndReport(cmd, ctx, project, "movies", args[0], instances)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name the movies belong to")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// persistAndReport stores the instance set as a new session and prints the
// result table.
func persistAndReport(cmd *cobra.Command, ctx *commandContext, project, sourceKind, sourcePath string, instances []*instance.Instance) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	store, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	created, err := store.CreateSession(cmd.Context(), project, sourceKind, sourcePath, instances)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderInstanceTable(instances))
	fmt.Fprintf(out, "Created session %d with %d instance(s)\n", created.ID, len(instances))
	return nil
}

func renderInstanceTable(instances []*instance.Instance) string {
	headers := []string{"Product", "Type", "Folder", "Task", "Frames", "Version", "Repres"}
	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		version := "next"
		if inst.Version != nil {
			version = strconv.Itoa(*inst.Version)
		}
		frames := ""
		if inst.FrameEnd > 0 {
			frames = fmt.Sprintf("%d-%d", inst.FrameStart, inst.FrameEnd)
		}
		rows = append(rows, []string{
			inst.ProductName,
			inst.ProductType,
			inst.FolderPath,
			inst.Task,
			frames,
			version,
			strconv.Itoa(len(inst.Representations)),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight})
}
