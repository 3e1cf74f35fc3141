package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/spf13/cobra"

	"github.com/cuemby/steward/pkg/appstate"
	"github.com/cuemby/steward/pkg/config"
	"github.com/cuemby/steward/pkg/driver"
	"github.com/cuemby/steward/pkg/history"
	"github.com/cuemby/steward/pkg/log"
	"github.com/cuemby/steward/pkg/metrics"
	"github.com/cuemby/steward/pkg/provider"
	"github.com/cuemby/steward/pkg/records"
	"github.com/cuemby/steward/pkg/rmclient"
	"github.com/cuemby/steward/pkg/statusapi"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "steward-am",
	Short: "steward-am is a standalone application master control plane",
	Long: `steward-am reconciles a role-based container population against
a cluster resource manager: it requests containers for under-provisioned
roles, releases them for over-provisioned ones, and tracks every
container through its lifecycle from request to completion.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"steward-am version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(statusCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the application master against a cluster specification",
	RunE: func(cmd *cobra.Command, args []string) error {
		specPath, _ := cmd.Flags().GetString("spec")
		providerName, _ := cmd.Flags().GetString("provider")
		historyDir, _ := cmd.Flags().GetString("history-dir")
		statusAddr, _ := cmd.Flags().GetString("status-addr")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		maxMemoryMB, _ := cmd.Flags().GetInt64("cluster-max-memory-mb")

		logger := log.WithComponent("serve")

		result, err := config.Load(specPath)
		if err != nil {
			return fmt.Errorf("failed to load cluster spec: %w", err)
		}

		prov, err := resolveProvider(providerName)
		if err != nil {
			return err
		}
		roles, err := prov.ListRoles()
		if err != nil {
			return fmt.Errorf("failed to list provider roles: %w", err)
		}

		var hist *history.RoleHistory
		if historyDir != "" {
			store, err := history.NewBoltStore(historyDir)
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer store.Close()
			hist = history.New(store)
			metrics.RegisterComponent("history-store", true, "bolt")
		} else {
			hist = history.New(nil)
			metrics.RegisterComponent("history-store", true, "in-memory")
		}

		engine, err := appstate.New(appstate.Config{
			Factory:            records.Factory{},
			History:            hist,
			FailureThreshold:   result.FailureThreshold,
			ShortLifeThreshold: result.ShortLifeThreshold,
			ClusterMaxMemoryMB: maxMemoryMB,
		})
		if err != nil {
			return fmt.Errorf("failed to build engine: %w", err)
		}
		if err := engine.BuildInstance(result.Spec, roles, nil); err != nil {
			return fmt.Errorf("failed to build cluster instance: %w", err)
		}

		client := rmclient.NewLocal(maxMemoryMB)
		metrics.RegisterComponent("rm-client", true, "local")

		drv := driver.New(engine, client)
		drv.Start()
		defer drv.Stop()

		collector := metrics.NewCollector(engine.RefreshClusterStatus)
		collector.Start(15 * time.Second)
		defer collector.Stop()

		metrics.SetVersion(Version)

		lis, err := net.Listen("tcp", statusAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", statusAddr, err)
		}
		grpcServer := grpc.NewServer()
		statusapi.Register(grpcServer, statusapi.NewServer(engine.RefreshClusterStatus))
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error().Err(err).Msg("status API server stopped")
			}
		}()
		defer grpcServer.GracefulStop()
		metrics.RegisterComponent("status-api", true, "ready")

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/health", metrics.HealthHandler())
		mux.HandleFunc("/ready", metrics.ReadyHandler())
		mux.HandleFunc("/live", metrics.LivenessHandler())
		metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()

		logger.Info().
			Str("cluster", result.Spec.Name).
			Str("status_addr", statusAddr).
			Str("metrics_addr", metricsAddr).
			Msg("application master running")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := drv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to release active containers during shutdown")
		}
		_ = metricsServer.Shutdown(shutdownCtx)

		return nil
	},
}

func init() {
	serveCmd.Flags().String("spec", "", "Path to the cluster specification YAML file (required)")
	serveCmd.Flags().String("provider", "tomcat", "Provider name: tomcat or flume")
	serveCmd.Flags().String("history-dir", "", "Directory for the role history database (in-memory if empty)")
	serveCmd.Flags().String("status-addr", "127.0.0.1:9091", "Address for the status gRPC API")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for metrics and health endpoints")
	serveCmd.Flags().Int64("cluster-max-memory-mb", 4096, "Cluster's container memory ceiling, for the \"max\" resource sentinel")
	serveCmd.MarkFlagRequired("spec")
}

func resolveProvider(name string) (provider.Provider, error) {
	switch name {
	case "tomcat":
		return provider.Tomcat{}, nil
	case "flume":
		return provider.Flume{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q, expected tomcat or flume", name)
	}
}

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Inspect and validate cluster specification documents",
}

var specValidateCmd = &cobra.Command{
	Use:   "validate PATH",
	Short: "Validate a cluster specification file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := config.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s is valid\n", args[0])
		fmt.Printf("  Cluster: %s\n", result.Spec.Name)
		fmt.Printf("  Failure threshold: %d\n", result.FailureThreshold)
		fmt.Printf("  Short life threshold: %s\n", result.ShortLifeThreshold)
		fmt.Printf("  Roles:\n")
		for name, role := range result.Spec.Roles {
			fmt.Printf("    %-20s desired=%-4d memory=%-6dMB cores=%d\n", name, role.Desired, role.Resource.MemoryMB, role.Resource.VCores)
		}
		return nil
	},
}

func init() {
	specCmd.AddCommand(specValidateCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running application master's cluster status",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		defer conn.Close()

		client := statusapi.NewClient(conn)
		desc, err := client.GetClusterDescription(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch cluster status: %w", err)
		}

		fmt.Printf("Cluster: %s\n", desc.Name)
		fmt.Printf("State: %s\n", desc.State)
		fmt.Printf("Progress: %d%%\n", desc.ProgressPercent)
		fmt.Printf("Restart count: %d\n", desc.RestartCount)
		fmt.Println()
		fmt.Printf("%-20s %-8s %-10s %-8s %-8s %-8s\n", "ROLE", "DESIRED", "REQUESTED", "ACTUAL", "STARTED", "FAILED")
		for name, stats := range desc.Roles {
			fmt.Printf("%-20s %-8d %-10d %-8d %-8d %-8d\n", name, stats.Desired, stats.Requested, stats.Actual, stats.Started, stats.Failed)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("addr", "127.0.0.1:9091", "Address of the status gRPC API")
}
