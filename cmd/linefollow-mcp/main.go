package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/linefollow-vision/internal/config"
	"github.com/ironsheep/linefollow-vision/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("linefollow-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("linefollow-mcp - MCP server for line-follower frame analysis")
			fmt.Println()
			fmt.Println("Usage: linefollow-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  LINEFOLLOW_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println("  LINEFOLLOW_CONFIG=<path>      YAML file with thresholds and timings")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("LINEFOLLOW_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Line Follow MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg := config.Default()
	if path := os.Getenv("LINEFOLLOW_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		cfg = loaded
		if debug {
			log.Printf("Loaded config from %s", path)
		}
	}

	server.Version = Version
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
	srv.Debug = debug
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
