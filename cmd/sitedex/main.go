package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sitedex/internal/config"
	"sitedex/internal/db"
	"sitedex/internal/domain"
	"sitedex/internal/engine"
	"sitedex/internal/migrate"
	"sitedex/internal/repo"
	"sitedex/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "sitedex",
	Short: "Sitedex CLI",
	Long: `Sitedex runs a website directory: intake, badge verification, moderation,
and scheduled publication.

- Submissions: websites submitted for review. Statuses go
  pending -> verified -> published, with rejected as an exit at any point
  before publication.
- Badge verification: a submitter who embeds the directory badge and a
  backlink on their site earns a dofollow link once an admin approves it.
- Verified: the time-delayed approval track. An admin marks a submission
  verified with a publish_at timestamp; the publish cycle promotes it when
  the time arrives.
- Listings: the public directory entries materialized from published
  submissions, addressed by slug.
- Event log: every state change is recorded, view with 'sitedex log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		_ = godotenv.Load(filepath.Join(workspace, ".env"))
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SITEDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "local-admin", "actor identifier for audit entries")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(submissionCmd())
	rootCmd.AddCommand(listingCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage site config",
		Long:  "Config holds the canonical site URL, badge asset paths, verification settings, rate limits, and the admin allow-list. Stored in the DB once imported; sitedex.yml seeds it.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configImportCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var siteURL string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default sitedex.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(siteURL)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&siteURL, "site-url", "https://example.com", "canonical site URL")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.UpsertSiteConfig(ctx, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show submission counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				counts, err := r.CountSubmissionsByStatus(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				fmt.Println("Submissions:")
				for _, status := range []string{domain.StatusPending, domain.StatusVerified, domain.StatusPublished, domain.StatusRejected} {
					fmt.Printf("  %s: %d\n", status, counts[status])
				}
				return nil
			})
		},
	}
	return cmd
}

func submissionCmd() *cobra.Command {
	sub := &cobra.Command{
		Use:   "submission",
		Short: "Manage submissions",
		Long:  "Submissions are the review queue. Approve publishes immediately; schedule parks a submission on the verified track until its publish time; reject is terminal.",
	}
	sub.AddCommand(submissionListCmd())
	sub.AddCommand(submissionShowCmd())
	sub.AddCommand(submissionAddCmd())
	sub.AddCommand(submissionApproveCmd())
	sub.AddCommand(submissionScheduleCmd())
	sub.AddCommand(submissionRejectCmd())
	sub.AddCommand(submissionBatchCmd())
	sub.AddCommand(submissionVerifyCmd())
	return sub
}

func submissionListCmd() *cobra.Command {
	var f repo.SubmissionFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListSubmissions(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "URL", "Status", "Badge", "Dofollow", "Publish At"})
				for _, s := range items {
					badge := ""
					if s.HasBadge {
						badge = "claimed"
					}
					if s.BadgeVerified {
						badge = "verified"
					}
					publishAt := ""
					if s.PublishAt != nil {
						publishAt = *s.PublishAt
					}
					tw.AppendRow(table.Row{s.ID, s.Title, s.URL, s.Status, badge, s.IsDofollow, publishAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (pending, verified, rejected, published)")
	cmd.Flags().StringVar(&f.UserID, "user", "", "submitter user id filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func submissionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				s, err := r.GetSubmission(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func submissionAddCmd() *cobra.Command {
	var opts engine.SubmitOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a website from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Submit(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "", "website URL")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Tagline, "tagline", "", "tagline")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category")
	cmd.Flags().StringVar(&opts.Pricing, "pricing", "free", "pricing (free, freemium, paid)")
	cmd.Flags().BoolVar(&opts.HasBadge, "has-badge", false, "submitter claims the badge is embedded")
	cmd.Flags().StringVar(&opts.UserEmail, "email", "", "submitter email")
	cmd.Flags().StringVar(&opts.UserName, "name", "", "submitter name")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func submissionApproveCmd() *cobra.Command {
	var dofollow bool
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Publish a submission now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.UpdateStatusOptions{
					ID:     args[0],
					Status: domain.StatusPublished,
					Actor:  viper.GetString("actor"),
				}
				if cmd.Flags().Changed("dofollow") {
					opts.IsDofollow = &dofollow
				}
				s, err := e.UpdateSubmissionStatus(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().BoolVar(&dofollow, "dofollow", false, "grant a dofollow link (requires a verified badge)")
	return cmd
}

func submissionScheduleCmd() *cobra.Command {
	var publishAt string
	var dofollow bool
	cmd := &cobra.Command{
		Use:   "schedule <id>",
		Short: "Mark verified with a future publish time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if publishAt == "" {
				return fmt.Errorf("--publish-at required (RFC 3339)")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.UpdateStatusOptions{
					ID:        args[0],
					Status:    domain.StatusVerified,
					PublishAt: &publishAt,
					Actor:     viper.GetString("actor"),
				}
				if cmd.Flags().Changed("dofollow") {
					opts.IsDofollow = &dofollow
				}
				s, err := e.UpdateSubmissionStatus(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&publishAt, "publish-at", "", "publish time (RFC 3339)")
	cmd.Flags().BoolVar(&dofollow, "dofollow", false, "grant a dofollow link (requires a verified badge)")
	return cmd
}

func submissionRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.UpdateSubmissionStatus(ctx, engine.UpdateStatusOptions{
					ID:     args[0],
					Status: domain.StatusRejected,
					Actor:  viper.GetString("actor"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func submissionBatchCmd() *cobra.Command {
	var action string
	cmd := &cobra.Command{
		Use:   "batch <id>...",
		Short: "Approve or reject many submissions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.BatchUpdate(ctx, args, engine.BatchAction(action), viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "approve or reject")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func submissionVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Re-run badge verification for a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.ReverifyBadge(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func listingCmd() *cobra.Command {
	l := &cobra.Command{
		Use:   "listing",
		Short: "Browse published listings",
	}
	l.AddCommand(listingListCmd())
	l.AddCommand(listingShowCmd())
	return l
}

func listingListCmd() *cobra.Command {
	var f repo.ListingFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListListings(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Slug", "Title", "URL", "Dofollow", "Published At"})
				for _, l := range items {
					tw.AppendRow(table.Row{l.Slug, l.Title, l.URL, l.IsDofollow, l.PublishedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", "", "category filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func listingShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				l, err := r.GetListingBySlug(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	return cmd
}

func publishCmd() *cobra.Command {
	pub := &cobra.Command{
		Use:   "publish",
		Short: "Run the publish cycle",
		Long:  "The publish cycle promotes verified submissions whose publish time has arrived. Run it once from cron, or keep it running with --watch.",
	}
	pub.AddCommand(publishRunCmd())
	return pub
}

func publishRunCmd() *cobra.Command {
	var watch bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Promote due verified submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if interval <= 0 {
					interval = e.Config.PublishInterval()
				}
				runOnce := func() error {
					stats, err := e.RunPublishCycle(ctx, time.Now())
					if err != nil {
						return err
					}
					return printJSONOrTable(stats)
				}
				if err := runOnce(); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := runOnce(); err != nil {
							fmt.Println("publish cycle error:", err)
						}
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running on an interval")
	cmd.Flags().DurationVar(&interval, "interval", 0, "watch interval (default from config)")
	return cmd
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <url>",
		Short: "Check a URL for the badge and backlink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ok := e.Verifier.VerifyBadge(ctx, args[0])
				if viper.GetBool("json") {
					return printJSON(map[string]any{"url": args[0], "verified": ok})
				}
				if ok {
					fmt.Println("badge verified")
				} else {
					fmt.Println("badge not found")
				}
				return nil
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(apikeyListCmd())
	cmd.AddCommand(apikeyRevokeCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			raw := uuid.NewString()
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				key := domain.APIKey{
					ID:        uuid.NewString(),
					Email:     email,
					Name:      name,
					KeyHash:   repo.HashAPIKey(raw),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "email": key.Email, "key": raw})
				}
				fmt.Printf("API key for %s (shown once):\n%s\n", email, raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, email)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Email", "Name", "Created At"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.Email, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "filter by owner email")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if e.Config.Auth.JWTSecret == "" {
					e.Config.Auth.JWTSecret = os.Getenv("SITEDEX_JWT_SECRET")
				}
				authCfg := server.AuthConfig{JWTSecret: e.Config.Auth.JWTSecret}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutCtx)
				}()
				fmt.Printf("Serving Sitedex API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

// resolveConfig prefers the DB-stored config, then sitedex.yml, then defaults.
func resolveConfig(ctx context.Context, workspace string, r repo.Repo) (*config.Config, error) {
	if cfg, err := r.GetSiteConfig(ctx); err == nil && cfg != nil {
		return cfg, nil
	} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return config.Default("https://example.com"), nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	cfg, err := resolveConfig(ctx, workspace, r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	defer e.Uploads.Close()
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
