// Package cli реализует salonctl, консольный клиент панели администратора.
// Сессия хранится в файле между запусками, остальное как в HTTP-сервере.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	salonadmin "github.com/magabrotheeeer/salon-admin/internal/app/salon-admin"
	"github.com/magabrotheeeer/salon-admin/internal/config"
)

// CoreFactory собирает ядро панели.
type CoreFactory func(ctx context.Context) (*salonadmin.Core, error)

// App хранит окружение команд.
type App struct {
	Out     io.Writer
	In      io.Reader
	NewCore CoreFactory

	jsonOut bool
	core    *salonadmin.Core
}

// NewRootCommand создаёт корневую команду salonctl.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "salonctl",
		Short: "Salon admin panel from the terminal",
		Long: `salonctl works with the salon admin API: session, branches,
memberships and their subscribers.

Configuration is read from the environment (BACKEND_BASE_URL,
BACKEND_API_TOKEN, STORAGE_DRIVER, STORAGE_FILE_PATH, ...).

Examples:
  salonctl login --email admin@salon.test
  salonctl branches use 6
  salonctl memberships list --sort price
  salonctl subscribers cancel 12 340`,
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if app.core == nil {
				return nil
			}
			return app.core.Close()
		},
	}
	root.SetOut(app.Out)
	root.PersistentFlags().BoolVar(&app.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newBranchesCmd(app),
		newMembershipsCmd(app),
		newSubscribersCmd(app),
	)
	return root
}

// Core возвращает ядро, создавая его при первом обращении.
func (a *App) Core(ctx context.Context) (*salonadmin.Core, error) {
	if a.core != nil {
		return a.core, nil
	}
	core, err := a.NewCore(ctx)
	if err != nil {
		return nil, err
	}
	a.core = core
	return core, nil
}

// DefaultCoreFactory читает конфиг из окружения. Без явного драйвера
// сессия хранится в ~/.salonctl/session.json.
func DefaultCoreFactory(log *slog.Logger, stderr io.Writer) CoreFactory {
	return func(ctx context.Context) (*salonadmin.Core, error) {
		const op = "cli.DefaultCoreFactory"
		cfg, err := config.LoadEnv()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if os.Getenv("STORAGE_DRIVER") == "" {
			cfg.Driver = "file"
		}
		if cfg.Driver == "file" && cfg.FilePath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			cfg.FilePath = filepath.Join(home, ".salonctl", "session.json")
		}
		return salonadmin.NewCore(ctx, cfg, log, salonadmin.CoreOptions{
			OnSessionExpired: func() {
				fmt.Fprintln(stderr, "Session expired. Run `salonctl login` again.")
			},
		})
	}
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
