package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/shamzam/internal/match"
	"github.com/himanishpuri/shamzam/internal/provider"
	"github.com/himanishpuri/shamzam/internal/resolve"
	"github.com/himanishpuri/shamzam/internal/service"
	"github.com/himanishpuri/shamzam/pkg/logger"
)

// Global flags
var (
	dbPath   string
	apiToken string
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("SHAMZAM_DB_PATH", "shamzam.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&apiToken, "token", os.Getenv("AUDD_API_TOKEN"), "AudD API token")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates the Shamzam service with configured options
func createService() (service.Service, error) {
	return service.New(
		service.WithDBPath(dbPath),
		service.WithAPIToken(apiToken),
	)
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "add":
		handleAdd()
	case "list":
		handleList()
	case "delete":
		handleDelete()
	case "recognize":
		handleRecognize()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Shamzam - track recognition against a local catalogue

Usage:
  shamzam add -title <title> -artist <artist> [-album <album>]
  shamzam list
  shamzam delete <track-id>
  shamzam recognize <audio-file>

Global flags:
  -db     Path to the SQLite database (env SHAMZAM_DB_PATH)
  -token  AudD API token (env AUDD_API_TOKEN)`)
}

func handleAdd() {
	addFlags := flag.NewFlagSet("add", flag.ExitOnError)
	title := addFlags.String("title", "", "Track title (required)")
	artist := addFlags.String("artist", "", "Track artist (required)")
	album := addFlags.String("album", "", "Track album")
	addFlags.StringVar(&dbPath, "db", dbPath, "Path to the SQLite database file")
	addFlags.Parse(os.Args[2:])

	if *title == "" || *artist == "" {
		fmt.Println("Error: -title and -artist are required")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	track, created, err := svc.AddTrack(context.Background(), *title, *artist, *album)
	if err != nil {
		logger.GetLogger().Fatalf("Failed to add track: %v", err)
	}

	if created {
		fmt.Printf("Added track %s: %s by %s\n", track.ID, track.Title, track.Artist)
	} else {
		fmt.Printf("Track already catalogued as %s: %s by %s\n", track.ID, track.Title, track.Artist)
	}
}

func handleList() {
	flag.CommandLine.Parse(os.Args[2:])

	svc, err := createService()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	tracks, err := svc.ListTracks()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to list tracks: %v", err)
	}

	if len(tracks) == 0 {
		fmt.Println("Catalogue is empty")
		return
	}

	fmt.Printf("%-36s  %-30s  %-25s  %s\n", "ID", "TITLE", "ARTIST", "ADDED")
	for _, track := range tracks {
		fmt.Printf("%-36s  %-30s  %-25s  %s\n",
			track.ID, track.Title, track.Artist, track.CreatedAt.Format(time.DateOnly))
	}
}

func handleDelete() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: shamzam delete <track-id>")
		os.Exit(1)
	}
	id := os.Args[2]
	flag.CommandLine.Parse(os.Args[3:])

	svc, err := createService()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	if err := svc.DeleteTrack(id); err != nil {
		logger.GetLogger().Fatalf("Failed to delete track: %v", err)
	}
	fmt.Printf("Deleted track %s\n", id)
}

func handleRecognize() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: shamzam recognize <audio-file>")
		os.Exit(1)
	}
	audioPath := os.Args[2]
	flag.CommandLine.Parse(os.Args[3:])

	data, err := os.ReadFile(audioPath)
	if err != nil {
		logger.GetLogger().Fatalf("Failed to read audio file: %v", err)
	}

	svc, err := createService()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	sample := provider.Sample{
		Data:   data,
		Format: strings.TrimPrefix(filepath.Ext(audioPath), "."),
	}

	result, err := svc.Recognize(context.Background(), sample)
	if err != nil {
		logger.GetLogger().Fatalf("Recognition failed: %v", err)
	}

	switch result.Status {
	case resolve.Matched:
		if result.MatchKind == match.Fuzzy {
			fmt.Printf("Matched (fuzzy, score %.2f): %s by %s [%s]\n",
				result.Score, result.Track.Title, result.Track.Artist, result.Track.ID)
		} else {
			fmt.Printf("Matched: %s by %s [%s]\n",
				result.Track.Title, result.Track.Artist, result.Track.ID)
		}
	case resolve.Created:
		fmt.Printf("New track catalogued: %s by %s [%s]\n",
			result.Track.Title, result.Track.Artist, result.Track.ID)
	case resolve.Unrecognized:
		fmt.Println("Track not recognized")
	case resolve.Rejected:
		fmt.Printf("Recognition rejected: %s\n", result.Reason)
		for _, c := range result.Candidates {
			fmt.Printf("  candidate: %s by %s (score %.2f)\n", c.Track.Title, c.Track.Artist, c.Score)
		}
		os.Exit(1)
	}
}
