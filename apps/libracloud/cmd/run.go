package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the API server",
	Long: `Start the API server on $PORT.

Configuration comes from the environment (and .env in development). With
--in-memory no database is needed: every table lives in process memory and
is lost on exit, which is handy for demos and for driving libractl locally.

Examples:
	# against postgres, applying pending migrations first
	libracloud run --migrate

	# throwaway server with a bootstrap librarian
	BOOTSTRAP_LIBRARIAN_USERNAME=admin BOOTSTRAP_LIBRARIAN_PASSWORD='Adm1n!pass' \
		BOOTSTRAP_LIBRARIAN_EMAIL=admin@example.com libracloud run --in-memory`,
	Run: run,
}

var (
	runInMemory bool
	runMigrate  bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runInMemory, "in-memory", false, "Keep all data in process memory instead of postgres")
	runCmd.Flags().BoolVar(&runMigrate, "migrate", false, "Apply pending migrations before serving")
}

func openRepos(ctx context.Context, cfg *config.EnvConfig) (*db.Repos, func(), error) {
	if cfg.InMemory {
		return db.NewMemoryRepos(), func() {}, nil
	}

	database, err := db.New(ctx, cfg.DB())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if runMigrate {
		status, err := db.Migrate(ctx, database)
		if err != nil {
			database.Close()
			return nil, nil, err
		}
		log.Printf("🗄  %s\n", status)
	}
	return db.NewBunRepos(database), func() { database.Close() }, nil
}

func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}
	if runInMemory {
		cfg.InMemory = true
	}
	cfg.Print(log.Printf)

	repos, closeRepos, err := openRepos(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}
	defer closeRepos()

	store, err := kv.Open(ctx, cfg.Store())
	if err != nil {
		log.Fatalf("failed to open revocation store: %v", err)
	}
	defer store.Close()

	api, svcs := lapi.New(cfg, repos, store)
	if err := svcs.Auth.Bootstrap(ctx); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 libra API starting on %s\n", addr)
	log.Printf("📚 OpenAPI docs: %s/docs\n", cfg.BaseURL)
	log.Printf("📄 OpenAPI spec: %s/openapi.json\n", cfg.BaseURL)
	log.Printf("📈 Metrics: %s/metrics\n", cfg.BaseURL)
	log.Printf("🔐 Token endpoint: %s/api/auth/token\n", cfg.BaseURL)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
	log.Println("👋 server stopped")
}
