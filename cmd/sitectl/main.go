// sitectl manages the tenant directory (sites.db) used by the gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/civicband/edge-gateway/internal/tenant"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  sitectl [-db sites.db] add <subdomain> <name> <state>")
	fmt.Println("  sitectl [-db sites.db] list")
	os.Exit(1)
}

func main() {
	args := os.Args[1:]
	dbPath := "sites.db"
	if len(args) >= 2 && args[0] == "-db" {
		dbPath = args[1]
		args = args[2:]
	}
	if len(args) < 1 {
		usage()
	}

	directory, err := tenant.OpenDirectory(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer directory.Close()

	ctx := context.Background()

	switch args[0] {
	case "add":
		if len(args) != 4 {
			usage()
		}
		site := &tenant.Site{
			Subdomain:   args[1],
			Name:        args[2],
			State:       args[3],
			LastUpdated: time.Now().UTC().Format("2006-01-02"),
		}
		if err := directory.Upsert(ctx, site); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("added %s (%s, %s)\n", site.Subdomain, site.Name, site.State)

	case "list":
		sites, err := directory.All(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		for _, s := range sites {
			fmt.Printf("%-30s %-25s %-4s last updated %s\n", s.Subdomain, s.Name, s.State, s.LastUpdated)
		}

	default:
		usage()
	}
}
