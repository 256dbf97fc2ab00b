package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	mqcli "github.com/sammcj/mcp-mq/internal/cli"
	"github.com/sammcj/mcp-mq/internal/config"
	"github.com/sammcj/mcp-mq/internal/registry"
	"github.com/sammcj/mcp-mq/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	// Import all tool packages to register them
	_ "github.com/sammcj/mcp-mq/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	logFile     atomic.Pointer[os.File]
	isStdioMode atomic.Bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Nothing is logged until the transport is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	defer performCleanup()

	app := &cli.Command{
		Name:    "mcp-mq",
		Usage:   "MCP server for querying markdown, MDX and HTML documents",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (default: ~/.mcp-mq/config.yaml)",
				Sources: cli.EnvVars("MCP_MQ_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&cli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required by the Streamable HTTP transport (optional)",
				Sources: cli.EnvVars("MCP_MQ_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
			&cli.DurationFlag{
				Name:  "session-timeout",
				Value: 30 * time.Minute,
				Usage: "Idle session timeout for Streamable HTTP transport",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("mcp-mq version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			cliCommand(logger),
		},
		Action: func(cliCtx context.Context, cmd *cli.Command) error {
			transport := cmd.String("transport")
			isStdioMode.Store(transport == "stdio")

			cfg, err := setup(cmd, logger, transport == "stdio")
			if err != nil {
				return err
			}

			if err := tools.InitGlobalErrorLog(logger); err != nil {
				logger.WithError(err).Warn("Failed to initialise tool error log")
			}

			logger.Infof("Starting mcp-mq version %s (commit: %s, built: %s)", Version, Commit, BuildDate)
			logger.WithFields(logrus.Fields{
				"max_content_bytes":   cfg.MaxContentBytes,
				"max_execution_steps": cfg.MaxExecutionSteps,
				"cache_ttl":           cfg.CacheTTL,
			}).Debug("Configuration loaded")

			mcpSrv := newMCPServer(transport, logger)

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				port := cmd.String("port")
				logger.WithField("port", port).Info("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(cmd.String("base-url")+"/sse"))
				go func() {
					<-cliCtx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					_ = sseServer.Shutdown(shutdownCtx)
				}()
				if err := sseServer.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case "http":
				return startStreamableHTTPServer(cliCtx, httpOptions{
					Port:           cmd.String("port"),
					EndpointPath:   cmd.String("endpoint-path"),
					AuthToken:      cmd.String("auth-token"),
					SessionTimeout: cmd.Duration("session-timeout"),
				}, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// stdout and stderr belong to the MCP protocol in stdio mode
		if !isStdioMode.Load() {
			logger.SetOutput(os.Stderr)
			logger.Errorf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// setup loads the configuration, configures logging and initialises the registry.
// In stdio mode logs go to ~/.mcp-mq/logs/mcp-mq.log, or nowhere.
func setup(cmd *cli.Command, logger *logrus.Logger, stdio bool) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.Set(cfg)

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)
	logrus.SetLevel(level)

	if file, err := openLogFile(); err == nil {
		logFile.Store(file)
		logger.SetOutput(file)
		logrus.SetOutput(file)
	} else if !stdio {
		logger.SetOutput(os.Stderr)
		logrus.SetOutput(os.Stderr)
	}

	for _, warning := range cfg.Warnings {
		logger.Warn("Config: " + warning)
	}

	registry.Init(logger, cfg.DisabledTools...)
	return cfg, nil
}

func openLogFile() (*os.File, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(homeDir, ".mcp-mq", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(logDir, "mcp-mq.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

// newMCPServer registers every enabled tool with a new MCP server.
func newMCPServer(transport string, logger *logrus.Logger) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("mcp-mq", Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	for name, tool := range registry.GetTools() {
		logger.WithField("tool", name).Debug("Registering tool")
		mcpSrv.AddTool(tool.Definition(), toolHandler(name, transport))
	}
	return mcpSrv
}

// toolHandler runs the named tool and records failures in the tool error log.
func toolHandler(name, transport string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tool, ok := registry.GetTool(name)
		if !ok {
			return nil, fmt.Errorf("tool not found: %s", name)
		}

		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid arguments type: expected map[string]any, got %T", request.Params.Arguments)
		}

		result, err := tool.Execute(ctx, registry.GetLogger(), registry.GetCache(), args)
		if err != nil {
			registry.GetLogger().WithError(err).WithField("tool", name).Debug("Tool execution failed")
			tools.GetGlobalErrorLog().Record(tools.NewErrorLogEntry(name, args, err, transport))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}

// cliCommand runs tools directly without starting a server.
func cliCommand(logger *logrus.Logger) *cli.Command {
	newRunner := func(cmd *cli.Command, jsonOutput bool) (*mqcli.Runner, error) {
		if _, err := setup(cmd, logger, false); err != nil {
			return nil, err
		}
		output := mqcli.OutputText
		if jsonOutput {
			output = mqcli.OutputJSON
		}
		return mqcli.NewRunner(logger, registry.GetCache(), output), nil
	}

	jsonFlag := &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"}

	return &cli.Command{
		Name:  "cli",
		Usage: "Run tools directly from the command line",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List available tools",
				Flags: []cli.Flag{jsonFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					runner, err := newRunner(cmd, cmd.Bool("json"))
					if err != nil {
						return err
					}
					return runner.ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show parameters and examples for a tool",
				ArgsUsage: "<tool>",
				Flags:     []cli.Flag{jsonFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: mcp-mq cli help <tool>")
					}
					runner, err := newRunner(cmd, cmd.Bool("json"))
					if err != nil {
						return err
					}
					return runner.HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool with --key=value flags or a JSON object",
				ArgsUsage:       "<tool> [--key=value ...] ['{\"key\": \"value\"}']",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args, jsonOutput := extractJSONFlag(cmd.Args().Slice())
					if len(args) == 0 {
						return fmt.Errorf("usage: mcp-mq cli run [--json] <tool> [args]")
					}
					runner, err := newRunner(cmd, jsonOutput)
					if err != nil {
						return err
					}
					return runner.RunTool(ctx, args[0], args[1:])
				},
			},
		},
	}
}

// extractJSONFlag removes --json from args. Tool arguments are parsed by the
// runner, so run skips flag parsing.
func extractJSONFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for _, arg := range args {
		if arg == "--json" {
			found = true
			continue
		}
		out = append(out, arg)
	}
	return out, found
}

// performCleanup closes the log file if it was opened
func performCleanup() {
	if file := logFile.Load(); file != nil {
		_ = file.Close()
	}
}
