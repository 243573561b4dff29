package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kinKKKdred/Matchingnetwork/internal/config"
	"github.com/kinKKKdred/Matchingnetwork/internal/server"
	"github.com/kinKKKdred/Matchingnetwork/internal/store"
	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
	"github.com/kinKKKdred/Matchingnetwork/pkg/nodal"
	"github.com/kinKKKdred/Matchingnetwork/pkg/output"
	"github.com/kinKKKdred/Matchingnetwork/pkg/validation"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")

	// Single-problem flags; when -topology is given the config problem list
	// is ignored and one problem is built from the flags below.
	topologyFlag := flag.String("topology", "", "solve one problem with this topology (L, T, Pi, single-stub, balanced-stub, double-stub)")
	ziFlag := flag.String("zi", "", "initial impedance in ohms, e.g. 30+40j")
	ztFlag := flag.String("zt", "", "target impedance in ohms")
	giFlag := flag.String("gi", "", "initial reflection coefficient, e.g. 0.5-0.2j")
	gtFlag := flag.String("gt", "", "target reflection coefficient")
	z0Flag := flag.Float64("z0", 0, "reference impedance in ohms (0 selects the configured default)")
	freqFlag := flag.Float64("f", 0, "design frequency in hertz (0 selects the configured default)")
	qFlag := flag.Float64("q", 0, "loaded Q for T and Pi networks (0 selects the automatic choice)")
	spacingFlag := flag.Float64("spacing", 0, "double-stub spacing in wavelengths, 0.125 or 0.375")

	verifyFlag := flag.Bool("verify", false, "cross-check every solution with a nodal analysis")
	verboseFlag := flag.Bool("verbose", false, "show the construction steps for each solution")
	saveFlag := flag.Bool("save", false, "record solves in the design log (requires store.path)")
	serveFlag := flag.Bool("serve", false, "run the HTTP API instead of solving")
	addrFlag := flag.String("addr", "", "listen address override for -serve")
	flag.Parse()

	// Load the config file to get logging configuration. Single-problem and
	// server runs work without one; batch runs need its problem list.
	conf := &config.Configuration{}
	if _, err := os.Stat(*configLocation); err == nil {
		conf, err = config.LoadConfiguration(*configLocation)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
			return
		}
	} else if *topologyFlag == "" && !*serveFlag {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.OutputFormat()
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *serveFlag {
		serve(logger, conf, *addrFlag)
		return
	}

	var problems []config.ProblemRequest
	if *topologyFlag != "" {
		problem := config.Problem{
			Name:         "ad hoc",
			Topology:     *topologyFlag,
			ZInitial:     *ziFlag,
			ZTarget:      *ztFlag,
			GammaInitial: *giFlag,
			GammaTarget:  *gtFlag,
			Z0:           *z0Flag,
			Frequency:    *freqFlag,
			Q:            *qFlag,
			Spacing:      *spacingFlag,
		}
		req, err := problem.ToRequest(conf.Defaults)
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			logger.Fatal("invalid problem",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		problems = []config.ProblemRequest{{Name: problem.Name, Request: req}}
	} else {
		// Validate configuration and display any warnings
		warnings := conf.ValidateConfiguration()
		for _, warning := range warnings {
			logger.Warn("Configuration warning: "+warning,
				zap.String("op", "main"),
			)
		}

		problems, err = conf.ActiveRequests()
		if err != nil {
			logger.Fatal("failed to build problem list",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if len(problems) == 0 {
			logger.Fatal("no active problems in configuration",
				zap.String("op", "main"),
			)
		}
	}

	// Open the design log only when asked to record.
	var designLog *store.Store
	if *saveFlag {
		if conf.Store.Path == "" {
			logger.Fatal("design log not configured; set store.path to use -save",
				zap.String("op", "main"),
			)
		}
		designLog, err = store.Open(logger, conf.Store.Path)
		if err != nil {
			logger.Fatal("failed to open design log",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		defer func() {
			_ = designLog.Close()
		}()
	}

	outcomes := make([]output.Outcome, 0, len(problems))
	for _, p := range problems {
		res, err := matching.Solve(logger, p.Request)
		if err != nil {
			logger.Fatal("failed to solve problem",
				zap.String("op", "main"),
				zap.String("problem", p.Name),
				zap.Error(err),
			)
		}

		var checks []nodal.Check
		if *verifyFlag {
			checks, err = nodal.VerifyResult(logger, res)
			if err != nil {
				logger.Fatal("failed to verify solutions",
					zap.String("op", "main"),
					zap.String("problem", p.Name),
					zap.Error(err),
				)
			}
		}

		if designLog != nil {
			rec, recErr := store.NewRecord(p.Name, p.Request, res)
			if recErr == nil {
				_, recErr = designLog.Save(context.Background(), rec)
			}
			if recErr != nil {
				logger.Warn("failed to record design",
					zap.String("op", "main"),
					zap.String("problem", p.Name),
					zap.Error(recErr),
				)
			}
		}

		outcomes = append(outcomes, output.Outcome{Name: p.Name, Result: res, Checks: checks})
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, outcomes, *verboseFlag)
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, outcomes)
	}
}

// serve runs the HTTP API until the process is stopped.
func serve(logger *zap.Logger, conf *config.Configuration, addrOverride string) {
	settings, err := server.ResolveSettings(conf.Server, conf.Store)
	if err != nil {
		logger.Fatal("invalid server configuration",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
	}

	address := settings.Address
	if addrOverride != "" {
		address = addrOverride
	}

	var designLog *store.Store
	if settings.StorePath != "" {
		designLog, err = store.Open(logger, settings.StorePath)
		if err != nil {
			logger.Fatal("failed to open design log",
				zap.String("op", "main.serve"),
				zap.Error(err),
			)
		}
		defer func() {
			_ = designLog.Close()
		}()
	}

	handler := server.NewHandler(logger, designLog, settings.UploadSizeBytes(), version)

	logger.Info("matchnet API listening",
		zap.String("op", "main.serve"),
		zap.String("address", address),
		zap.String("version", version),
	)
	if err := http.ListenAndServe(address, handler); err != nil {
		logger.Fatal("server stopped",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
	}
}
