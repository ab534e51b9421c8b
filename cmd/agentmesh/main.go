// Command agentmesh is the entry point for the agent messaging runtime: a
// cobra command tree with "serve" and "demo" subcommands, a shared --config
// flag, and .env loading for local development.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/cli"
	"agentmesh/pkg/config"
	"agentmesh/pkg/demoagents"
	"agentmesh/pkg/events"
	"agentmesh/pkg/ids"
	"agentmesh/pkg/metrics"
	"agentmesh/pkg/runtime"
	"agentmesh/pkg/selector"
	"agentmesh/pkg/snapshot"
	"agentmesh/pkg/subscription"
	"agentmesh/pkg/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func init() {
	loadEnvFile(".env")
}

// loadEnvFile reads KEY=VALUE pairs from filename into the environment,
// skipping blanks/comments and anything already set. The file is optional.
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:     "agentmesh",
		Short:   "in-process agent messaging runtime",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to agentmesh.yaml (optional)")

	root.AddCommand(
		newServeCommand(&configPath),
		newDemoCommand(&configPath),
	)

	if err := root.Execute(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the runtime and dashboard with no demo agents registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.PrintBanner()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rt, logger := buildRuntime(cfg)
			return runUntilSignal(rt, logger, cfg)
		},
	}
}

func newDemoCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "run the runtime with demo agents and exercise send/publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.PrintBanner()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rt, logger := buildRuntime(cfg)
			agents := cfg.Agents
			if len(agents) == 0 {
				agents = defaultDemoAgents()
			}
			if err := registerDemoAgents(rt, agents); err != nil {
				return err
			}
			go runDemoTraffic(rt, logger, agents)
			return runUntilSignal(rt, logger, cfg)
		},
	}
}

func buildRuntime(cfg config.Config) (*runtime.Runtime, zerolog.Logger) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	bus := events.NewBus()

	rt := runtime.New(
		runtime.WithLogger(logger),
		runtime.WithMetrics(collector),
		runtime.WithEventBus(bus),
	)
	return rt, logger
}

// defaultDemoAgents is the agent roster used when the config supplies none,
// preserving the original fixed echo/counter/fanout-one/fanout-two demo.
func defaultDemoAgents() []config.AgentSpec {
	return []config.AgentSpec{
		{Type: "echo", Key: "default"},
		{Type: "counter", Key: "default"},
		{Type: "fanout", Key: "one", Topics: []string{"news"}},
		{Type: "fanout", Key: "two", Topics: []string{"news"}},
	}
}

// registerDemoAgents registers the echo/counter/fanout factories and, for
// every fanout AgentSpec, a type-bound subscription on its listed topics.
func registerDemoAgents(rt *runtime.Runtime, agents []config.AgentSpec) error {
	bus := rt.EventBus()

	if _, err := rt.Register("echo", func(rt *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return demoagents.NewEcho(id, bus), nil
	}); err != nil {
		return err
	}

	if _, err := rt.Register("counter", func(rt *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return demoagents.NewCounter(id, bus), nil
	}); err != nil {
		return err
	}

	var fanoutBindings []subscription.Subscription
	for _, spec := range agents {
		if spec.Type != "fanout" {
			continue
		}
		agentID := ids.NewAgentId("fanout", spec.Key)
		for _, topic := range spec.Topics {
			fanoutBindings = append(fanoutBindings, subscription.TypeBound{
				SubscriptionID: fmt.Sprintf("fanout-%s-%s", spec.Key, topic),
				TopicType:      topic,
				Agent:          agentID,
			})
		}
	}

	_, err := rt.Register("fanout", func(rt *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return demoagents.NewFanout(id, bus), nil
	}, fanoutBindings...)
	return err
}

// runDemoTraffic sends a handful of sample messages once the runtime starts,
// so the dashboard and logs have something to show immediately. Echo sends
// are spread round-robin across every configured echo instance rather than
// a single fixed key.
func runDemoTraffic(rt *runtime.Runtime, logger zerolog.Logger, agents []config.AgentSpec) {
	time.Sleep(200 * time.Millisecond)
	ctx := context.Background()

	var echoPool []ids.AgentId
	var counterID ids.AgentId
	for _, spec := range agents {
		switch spec.Type {
		case "echo":
			echoPool = append(echoPool, ids.NewAgentId("echo", spec.Key))
		case "counter":
			counterID = ids.NewAgentId("counter", spec.Key)
		}
	}
	if len(echoPool) == 0 {
		echoPool = []ids.AgentId{ids.NewAgentId("echo", "default")}
	}
	if counterID == (ids.AgentId{}) {
		counterID = ids.NewAgentId("counter", "default")
	}

	rr, err := selector.NewRoundRobin(echoPool...)
	if err != nil {
		logger.Warn().Err(err).Msg("demo round robin selector unavailable")
		return
	}

	for i := 0; i < len(echoPool); i++ {
		result, err := rt.SendMessage(ctx, "hello from the demo", rr.Next())
		if err == nil {
			if reply, waitErr := result.Wait(ctx); waitErr == nil {
				logger.Info().Interface("reply", reply).Msg("demo echo round-trip")
			}
		}
	}

	for i := 1; i <= 3; i++ {
		result, err := rt.SendMessage(ctx, demoagents.Tick{Amount: i}, counterID)
		if err != nil {
			continue
		}
		if total, waitErr := result.Wait(ctx); waitErr == nil {
			logger.Info().Interface("total", total).Msg("demo counter tick")
		}
	}

	_ = rt.PublishMessage(ctx, demoagents.Announcement{Headline: "agentmesh demo is running"}, ids.TopicId{Type: "news", Source: "demo"})
}

func runUntilSignal(rt *runtime.Runtime, logger zerolog.Logger, cfg config.Config) error {
	if err := rt.Start(); err != nil {
		return fmt.Errorf("agentmesh: starting runtime: %w", err)
	}

	store, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("agentmesh: opening snapshot store: %w", err)
	}
	defer store.Close()

	adapter := runtimeStateSource{rt: rt}
	if err := store.Restore(adapter); err != nil {
		logger.Warn().Err(err).Msg("snapshot restore failed, starting clean")
	}

	dashboard := web.NewServer(rt, logger)
	go func() {
		if err := dashboard.ListenAndServe(cfg.ListenAddr); err != nil {
			logger.Warn().Err(err).Msg("dashboard server stopped")
		}
	}()
	cli.PrintInfo(fmt.Sprintf("dashboard: http://localhost%s", cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	cli.PrintInfo("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Persist(adapter); err != nil {
		logger.Warn().Err(err).Msg("snapshot persist failed")
	}
	if err := rt.Stop(stopCtx); err != nil {
		return fmt.Errorf("agentmesh: stopping runtime: %w", err)
	}
	cli.PrintSuccess("stopped cleanly")
	return nil
}

// runtimeStateSource adapts *runtime.Runtime's context-taking SaveState/
// LoadState to the context-free snapshot.StateSource contract.
type runtimeStateSource struct {
	rt *runtime.Runtime
}

func (a runtimeStateSource) SaveState() (map[string]map[string]any, error) {
	return a.rt.SaveState(context.Background())
}

func (a runtimeStateSource) LoadState(state map[string]map[string]any) error {
	return a.rt.LoadState(context.Background(), state)
}
