package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/homemade/spigot/logger"
	"github.com/homemade/spigot/sync"
)

func main() {
	// Parse command-line flags
	mappingsPath := flag.String("mappings", "mappings.yaml", "Path to the field mapping configuration file")
	inputPath := flag.String("input", "input.json", "Path to the input data file")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	docs := flag.Bool("docs", false, "Print CSV documentation for the configured mappings and exit")
	help := flag.Bool("help", false, "Display help information")
	flag.Parse()

	if *help {
		displayUsage()
		os.Exit(0)
	}

	log := logger.New()
	log.SetLevel(*logLevel)

	// Credentials may be kept in a local .env file
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	sync.Init()

	cfg, err := sync.LoadConfigFromEnvironment(*mappingsPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *docs {
		doc := sync.GenerateFieldDocumentation(cfg.Mappings)
		table, err := doc.FormatCSV()
		if err != nil {
			log.Fatalf("Failed to generate mapping documentation: %v", err)
		}
		fmt.Print(table)
		os.Exit(0)
	}

	source, err := sync.LoadInputFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to load input data: %v", err)
	}

	client, err := sync.NewClient(cfg.API)
	if err != nil {
		log.Fatalf("Failed to create Pipedrive client: %v", err)
	}

	syncer := sync.Syncer{API: client, Log: log}
	person, err := syncer.Sync(source, cfg.Mappings, context.Background())
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}

	log.Infof("Synced person %d (%s)", person.ID, person.Name)
	fmt.Println(string(person.Record))
}

// displayUsage displays usage information
func displayUsage() {
	fmt.Println("\nPipedrive Contact Sync")
	fmt.Println("======================")
	fmt.Println("Usage: spigot [options]")
	fmt.Println("Options:")
	fmt.Println("  -mappings string")
	fmt.Println("        Path to the field mapping configuration file (default \"mappings.yaml\")")
	fmt.Println("  -input string")
	fmt.Println("        Path to the input data file (default \"input.json\")")
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: debug, info, warn, error (default \"info\")")
	fmt.Println("  -docs")
	fmt.Println("        Print CSV documentation for the configured mappings and exit")
	fmt.Println("  -help")
	fmt.Println("        Display this help information")
	fmt.Println("Environment:")
	fmt.Printf("  %s       API token (required)\n", sync.EnvAPIToken)
	fmt.Printf("  %s  Account domain, e.g. \"acme\" for acme.pipedrive.com (required)\n", sync.EnvCompanyDomain)
	fmt.Println("Examples:")
	fmt.Println("  spigot -mappings=campaign.yaml -input=contact.json")
	fmt.Println("  spigot -mappings=campaign.yaml -docs")
}
