package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/session"
	"github.com/verte-zerg/paperlist/internal/stats"
	"github.com/verte-zerg/paperlist/internal/statsui"
	"github.com/verte-zerg/paperlist/internal/tasklist"
	"github.com/verte-zerg/paperlist/internal/trophy"
)

var (
	moveBy int

	appearanceTitle      string
	appearancePaper      string
	appearanceBackground string

	historySince string
	historyLast  int
	historyTrend bool

	trophiesTUI bool
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the list state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				current, err := svc.Get(cmd.Context())
				if err != nil {
					return err
				}
				tasks, err := svc.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), current, tasks, time.Now())
			})
		},
	}
}

func printStatus(w io.Writer, current model.Session, tasks []model.Task, now time.Time) error {
	done := 0
	for _, task := range tasks {
		if task.Completed {
			done++
		}
	}
	lines := []string{
		current.Title,
		fmt.Sprintf("Status: %s", current.Status),
	}
	if current.StartTime != nil {
		lines = append(lines, fmt.Sprintf("Started: %s", current.StartTime.Format("2006-01-02 15:04")))
	}
	switch current.Status {
	case model.StatusRunning:
		if current.StartTime != nil {
			lines = append(lines, fmt.Sprintf("Elapsed: %s", stats.FormatDuration(now.Sub(*current.StartTime))))
		}
	case model.StatusFinished:
		if current.StartTime != nil && current.EndTime != nil {
			lines = append(lines, fmt.Sprintf("Duration: %s", stats.FormatDuration(current.EndTime.Sub(*current.StartTime))))
		}
		lines = append(lines, fmt.Sprintf("Trophy: %s (tier %d)", trophy.Title(current.Tier), current.Tier))
	}
	lines = append(lines, fmt.Sprintf("Tasks: %d/%d done", done, len(tasks)))
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <task...>",
		Short: "Add a task to the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *session.Service) error {
				task, err := svc.AddTask(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added #%d: %s\n", task.ID, task.Content)
				return err
			})
		},
	}
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"ls"},
		Short:   "List tasks in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				tasks, err := svc.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				return printTasks(cmd.OutOrStdout(), tasks)
			})
		},
	}
}

func printTasks(w io.Writer, tasks []model.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks yet.")
		return err
	}
	for _, task := range tasks {
		box := "[ ]"
		if task.Completed {
			box = "[x]"
		}
		if _, err := fmt.Fprintf(w, "%s #%d %s\n", box, task.ID, task.Content); err != nil {
			return err
		}
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append tasks from a text or markdown checklist file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := tasklist.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withService(cmd, func(svc *session.Service) error {
				tasks, err := svc.AddTasks(cmd.Context(), contents)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", len(tasks))
				return err
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the list as a markdown checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				current, err := svc.Get(cmd.Context())
				if err != nil {
					return err
				}
				tasks, err := svc.Tasks(cmd.Context())
				if err != nil {
					return err
				}
				return tasklist.Write(cmd.OutOrStdout(), current.Title, tasks)
			})
		},
	}
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <task...>",
		Short: "Replace the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(svc *session.Service) error {
				task, err := svc.EditTask(cmd.Context(), id, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d: %s\n", task.ID, task.Content)
				return err
			})
		},
	}
}

func newCheckCmd(completed bool) *cobra.Command {
	use, short, verb := "check <id>", "Check off a task while the list is running", "Checked"
	if !completed {
		use, short, verb = "uncheck <id>", "Uncheck a task", "Unchecked"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(svc *session.Service) error {
				task, err := svc.SetTaskCompleted(cmd.Context(), id, completed)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s #%d: %s\n", verb, task.ID, task.Content)
				return err
			})
		},
	}
}

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task up or down the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(svc *session.Service) error {
				tasks, err := svc.MoveTask(cmd.Context(), id, moveBy)
				if err != nil {
					return err
				}
				return printTasks(cmd.OutOrStdout(), tasks)
			})
		},
	}
	cmd.Flags().IntVar(&moveBy, "by", -1, "positions to move; negative moves up")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(svc *session.Service) error {
				if err := svc.DeleteTask(cmd.Context(), id); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", id)
				return err
			})
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the clock on the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				if err := svc.CheckStart(cmd.Context()); err != nil {
					return err
				}
				current, err := svc.Start(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Started at %s\n", current.StartTime.Format("15:04"))
				return err
			})
		},
	}
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Finish the running list and earn a trophy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				if err := svc.CheckComplete(cmd.Context()); err != nil {
					return err
				}
				current, err := svc.Complete(cmd.Context())
				if err != nil {
					return err
				}
				return printCompletion(cmd.OutOrStdout(), current)
			})
		},
	}
}

func printCompletion(w io.Writer, current model.Session) error {
	if current.Status != model.StatusFinished || current.StartTime == nil || current.EndTime == nil {
		return fmt.Errorf("list was not completed, it is %s", current.Status)
	}
	elapsed := current.EndTime.Sub(*current.StartTime)
	_, err := fmt.Fprintf(w, "%s Achiever! Finished in %s (tier %d)\n",
		trophy.Title(current.Tier), stats.FormatDuration(elapsed), current.Tier)
	return err
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start a new list, clearing tasks per --clear-mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				current, err := svc.Reset(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is back to %s (cleared %s)\n",
					current.Title, current.Status, svc.ClearMode())
				return err
			})
		},
	}
}

func newAppearanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appearance",
		Short: "Change the list title or colors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var changes model.Appearance
			applyAppearanceFlag(cmd, "title", &changes.Title, appearanceTitle)
			applyAppearanceFlag(cmd, "paper", &changes.PaperColor, appearancePaper)
			applyAppearanceFlag(cmd, "background", &changes.BackgroundColor, appearanceBackground)
			if changes.Title == nil && changes.PaperColor == nil && changes.BackgroundColor == nil {
				return fmt.Errorf("set at least one of --title, --paper or --background")
			}
			return withService(cmd, func(svc *session.Service) error {
				current, err := svc.UpdateAppearance(cmd.Context(), changes)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (paper %s, background %s)\n",
					current.Title, current.PaperColor, current.BackgroundColor)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&appearanceTitle, "title", "", "list title")
	cmd.Flags().StringVar(&appearancePaper, "paper", "", "paper color (#rrggbb)")
	cmd.Flags().StringVar(&appearanceBackground, "background", "", "background color (#rrggbb)")
	return cmd
}

func applyAppearanceFlag(cmd *cobra.Command, name string, target **string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	v := value
	*target = &v
}

func newTrophiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trophies",
		Short: "Show the trophy collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *session.Service) error {
				if trophiesTUI {
					cabinet := statsui.NewModel(cmd.Context(), svc, model.HistoryConfig{})
					program := tea.NewProgram(cabinet, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
					if _, err := program.Run(); err != nil {
						return fmt.Errorf("failed to run trophies TUI: %w", err)
					}
					return nil
				}
				report, err := stats.BuildReport(cmd.Context(), svc, model.HistoryConfig{})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if err := stats.RenderTrophies(out, report.Counts, stats.ShouldUseColor(out)); err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out); err != nil {
					return err
				}
				return stats.RenderSummary(out, report.Summary)
			})
		},
	}
	cmd.Flags().BoolVar(&trophiesTUI, "tui", false, "browse trophies and history interactively")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished lists, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sinceTime *time.Time
			if historySince != "" {
				parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --since value: %w", err)
				}
				sinceTime = &parsed
			}
			if historyLast < 0 {
				return fmt.Errorf("--last must be >= 0")
			}
			cfg := model.HistoryConfig{Since: sinceTime, Last: historyLast}
			return withService(cmd, func(svc *session.Service) error {
				finishes, err := svc.History(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if historyTrend {
					return stats.RenderTrend(out, finishes, 0, 0, stats.ShouldUseColor(out))
				}
				return stats.RenderHistory(out, finishes)
			})
		},
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N finishes")
	cmd.Flags().BoolVar(&historyTrend, "trend", false, "plot the tier of each finish instead of listing them")
	return cmd
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", value)
	}
	return id, nil
}
