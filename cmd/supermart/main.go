package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"supermart/internal/config"
	"supermart/internal/domain"
	"supermart/internal/events"
	"supermart/internal/http/handlers"
	"supermart/internal/http/server"
	"supermart/internal/metrics"
	"supermart/internal/repos"
	"supermart/internal/services"
	"supermart/internal/session"
	"supermart/internal/validate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:          "supermart",
		Short:        "Supermart storefront and back-office",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cfg)
		},
	}
	root.PersistentFlags().StringVar(&cfg.DBDSN, "db", cfg.DBDSN, "sqlite database file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cfg)
		},
	}
	serveCmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	root.Flags().AddFlagSet(serveCmd.Flags())

	root.AddCommand(serveCmd, productsCmd(&cfg), paymentsCmd(&cfg), createAdminCmd(&cfg))
	return root
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDSN, err)
	}
	return db, nil
}

func serve(cfg config.Config) error {
	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := openDB(&cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var storage fiber.Storage
	if cfg.RedisAddr != "" {
		rs := session.NewRedisStorage(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rs.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		defer rs.Close()
		storage = rs
		log.Printf("[session] redis store at %s", cfg.RedisAddr)
	}
	sessions := session.NewStore(cfg.SessionTTL, storage)

	pub := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer pub.Close()

	m := metrics.New()
	pp, qr := handlers.Gateways(cfg)
	deps := handlers.NewDeps(db, sessions, pp, qr, pub, m)
	app := server.New(cfg, deps)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Printf("[server] shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Printf("[server] listening on :%s", cfg.Port)
	return app.Listen(":" + cfg.Port)
}

func productsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog with stock levels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			ps, err := repos.NewProductRepo(db).List(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Name", "Price", "Qty", "Status"})
			for _, p := range ps {
				t.AppendRow(table.Row{p.ID, p.Name, p.Price.StringFixed(2), p.Quantity, services.CheckAvailability(p.Quantity).Status})
			}
			t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d products", len(ps))})
			t.Render()
			return nil
		},
	}
}

func paymentsCmd(cfg *config.Config) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List recorded payments, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := repos.NewPaymentRepo(db)
			var ps []domain.Payment
			if userID != "" {
				ps, err = repo.ListByUser(cmd.Context(), userID)
			} else {
				ps, err = repo.ListAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "User", "Method", "Reference", "Total", "Created"})
			for _, p := range ps {
				t.AppendRow(table.Row{p.ID, p.UserID, p.Method, p.Reference(), p.Total.StringFixed(2), p.CreatedAt.Local().Format(time.DateTime)})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only payments of this user id")
	return cmd
}

func createAdminCmd(cfg *config.Config) *cobra.Command {
	var email, username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Register an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, ok := validate.Username(username)
			if !ok {
				return fmt.Errorf("invalid username %q", username)
			}
			addr, ok := validate.Email(email)
			if !ok {
				return fmt.Errorf("invalid email %q", email)
			}
			if !validate.Password(password) {
				return fmt.Errorf("password must be 8-20 characters with upper and lower case letters, a digit and a symbol")
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			auth := &services.AuthService{Users: repos.NewUserRepo(db)}
			u, err := auth.Register(cmd.Context(), services.Registration{
				Username: name, Email: addr, Password: password, Role: domain.RoleAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
