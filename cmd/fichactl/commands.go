package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyjia/foundry-fichas/internal/container"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/pkg/database"
	"github.com/garyjia/foundry-fichas/pkg/utils"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			db, err := database.New(database.Config{
				Path:            cfg.Database.Path,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, ctx.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, ctx.logger)
			if err := migrator.Run(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			applied, err := migrator.Applied()
			if err != nil {
				return fmt.Errorf("read applied migrations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date at %s (%d migrations)\n", cfg.Database.Path, len(applied))
			return nil
		},
	}
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Flag in-progress fichas whose deadline has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(app *container.Container) error {
				ids, err := app.Services().Fichas.SweepOverdue(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "No newly overdue fichas")
					return nil
				}
				parts := make([]string, len(ids))
				for i, id := range ids {
					parts[i] = strconv.FormatInt(id, 10)
				}
				fmt.Fprintf(out, "Flagged %d fichas as overdue: %s\n", len(ids), strings.Join(parts, ", "))
				return nil
			})
		},
	}
}

func newKanbanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "kanban",
		Short: "Show in-progress fichas grouped by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd.Context(), func(app *container.Container) error {
				columns, err := app.Services().Fichas.Kanban(cmd.Context())
				if err != nil {
					return err
				}

				var rows [][]string
				for _, col := range columns {
					if len(col.Fichas) == 0 {
						rows = append(rows, []string{col.Stage.DisplayName, "-", "", "", ""})
						continue
					}
					for _, f := range col.Fichas {
						overdue := ""
						if f.IsOverdue {
							overdue = "ATRASADA"
						}
						rows = append(rows, []string{
							col.Stage.DisplayName,
							f.Code,
							f.Designer,
							f.Deadline.Format("02/01/2006"),
							overdue,
						})
					}
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Stage", "Code", "Designer", "Deadline", "Overdue"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <ficha-id>",
		Short: "Write a ficha report spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid ficha id %q", args[0])
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				target = fmt.Sprintf("ficha-%d.xlsx", id)
			}

			return ctx.withContainer(cmd.Context(), func(app *container.Container) error {
				content, err := app.Services().Reports.RenderXLSX(cmd.Context(), id)
				if err != nil {
					return err
				}
				if dir := filepath.Dir(target); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("create output directory %q: %w", dir, err)
					}
				}
				if err := os.WriteFile(target, content, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", target, len(content))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination file (default ficha-<id>.xlsx)")
	return cmd
}

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users who receive notifications",
	}
	userCmd.AddCommand(newUserAddCommand(ctx))
	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name      string
		email     string
		privilege string
		sector    string
		openID    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := &entity.User{
				Name:       utils.SanitizeLine(name),
				Email:      strings.TrimSpace(email),
				Privilege:  entity.Privilege(privilege),
				Sector:     utils.SanitizeLine(sector),
				LarkOpenID: strings.TrimSpace(openID),
				Active:     true,
			}
			if user.Name == "" {
				return fmt.Errorf("--name is required")
			}
			if err := utils.ValidateEmail(user.Email); err != nil {
				return err
			}
			if !user.Privilege.IsValid() {
				return fmt.Errorf("unknown privilege %q (want administrador, superior or comum)", privilege)
			}

			return ctx.withContainer(cmd.Context(), func(app *container.Container) error {
				if err := app.Repositories().Users.Create(cmd.Context(), user); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&privilege, "privilege", string(entity.PrivilegeStandard), "administrador, superior or comum")
	cmd.Flags().StringVar(&sector, "sector", "", "Sector notified when fichas enter its stage")
	cmd.Flags().StringVar(&openID, "lark-open-id", "", "Lark open_id for direct messages")
	return cmd
}
