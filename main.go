package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/slighter12/sanshu-mcp-go/config"
	"github.com/slighter12/sanshu-mcp-go/history"
	"github.com/slighter12/sanshu-mcp-go/interaction"
	"github.com/slighter12/sanshu-mcp-go/logger"
	"github.com/slighter12/sanshu-mcp-go/tools"
	"github.com/slighter12/sanshu-mcp-go/transport/http"
	"github.com/slighter12/sanshu-mcp-go/transport/shared"
	"github.com/slighter12/sanshu-mcp-go/transport/stdio"
)

const serverName = "sanshu-mcp-go"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

type runner interface {
	Start(ctx context.Context) error
	NotifyToolsListChanged()
}

func main() {
	configFlag := flag.String("config", "", "path to sanshu_config.json")
	stdioFlag := flag.Bool("stdio", false, "serve MCP over stdin/stdout")
	portFlag := flag.Int("port", 0, "streamable HTTP port (overrides config)")
	levelFlag := flag.String("log-level", "", "log level: debug, info, warn, error")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(serverName, version)
		return
	}

	// Load configuration
	configPath := *configFlag
	if configPath == "" {
		resolved, err := config.ResolveConfigPath()
		if err != nil {
			log.Fatalf("Failed to resolve config path: %+v", err)
		}
		configPath = resolved
	}
	if err := config.EnsureDefaultConfig(configPath); err != nil {
		log.Fatalf("Failed to create default configuration: %+v", err)
	}

	store := config.NewStore(configPath)
	boot := *store.Snapshot()
	cfg := &boot
	if *portFlag > 0 {
		cfg.Server.Port = *portFlag
	}
	if *levelFlag != "" {
		cfg.Logging.Level = *levelFlag
	}

	// Initialize logger
	if err := logger.Init(logger.GetLevelFromString(cfg.Logging.Level), logger.Format(cfg.Logging.Format), cfg.Logging.Path); err != nil {
		log.Fatalf("Failed to initialize logger: %+v", err)
	}
	defer logger.Default().Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, store, cfg, *stdioFlag, *levelFlag != ""); err != nil {
		logger.Error("Server error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, store *config.Store, cfg *config.Config, forceStdio, levelPinned bool) error {
	deps := tools.Dependencies{
		Reconciler: interaction.NewReconciler(interaction.NewTempImageSaver()),
		ClientMode: func() interaction.ClientMode {
			current, err := store.Load()
			if err != nil {
				current = store.Snapshot()
			}
			return interaction.ParseClientMode(current.UI.ClientMode)
		},
	}

	popup := interaction.NewTransport(interaction.NewResolver(cfg.UI.BinaryName))
	deps.Popup = popup
	deps.Picker = popup

	if cfg.History.Enabled {
		historyStore, err := history.Open(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			logger.Warn("Interaction history disabled", "path", cfg.History.Path, "error", err)
		} else {
			defer historyStore.Close()
			deps.History = historyStore
		}
	}

	manager := tools.NewManager(tools.NewRegistry(store))
	manager.RegisterTools(tools.GetAllTools(deps)...)

	info := shared.ServerInfo{Name: serverName, Version: version}
	var server runner
	if useStdio(cfg, forceStdio) {
		logger.Info("Starting MCP server in stdio mode", "config", store.Path())
		server = stdio.NewStdioServer(manager, info)
	} else {
		server = http.NewServer(cfg, manager, info)
	}

	sweeper := interaction.NewImageSweeper(os.TempDir(),
		time.Duration(cfg.Images.TTLMinutes)*time.Minute,
		time.Duration(cfg.Images.SweepIntervalMinutes)*time.Minute)
	go sweeper.Run(ctx)

	watcher, err := config.NewWatcher(store)
	if err != nil {
		logger.Warn("Config hot reload disabled", "error", err)
	} else {
		defer watcher.Close()
		watcher.OnChange(func(next *config.Config) {
			if !levelPinned {
				logger.SetLevel(logger.GetLevelFromString(next.Logging.Level))
			}
			server.NotifyToolsListChanged()
		})
		go watcher.Run(ctx)
	}

	return server.Start(ctx)
}

func useStdio(cfg *config.Config, forced bool) bool {
	if forced || os.Getenv("MCP_USE_STDIO") == "true" {
		return true
	}
	for _, t := range cfg.Transports {
		if t.Type == "streamable_http" && t.Enabled {
			return false
		}
	}
	return true
}
