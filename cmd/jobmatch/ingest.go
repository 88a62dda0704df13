package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/poiesic/jobmatch"
	"github.com/poiesic/jobmatch/api"
	"github.com/poiesic/jobmatch/core"
	"github.com/urfave/cli/v2"
)

// profileRecord is one line of a profiles file.
type profileRecord struct {
	UserID uint64   `json:"userId"`
	Skills []string `json:"skills"`
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Load listings and profiles from JSON-lines files",
		Description: "Each line of --listings is a listing in the API's JSON shape.\n" +
			"Each line of --profiles is {\"userId\": 1, \"skills\": [\"Go\"]}.\n" +
			"Use - to read standard input.",
		Action: ingestAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listings", Usage: "File of listings"},
			&cli.StringFlag{Name: "profiles", Usage: "File of profiles"},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Records stored per write",
				Value: 50,
			},
		},
	}
}

func ingestAction(c *cli.Context) error {
	if c.String("listings") == "" && c.String("profiles") == "" {
		return fmt.Errorf("at least one of --listings or --profiles is required")
	}
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if name := c.String("listings"); name != "" {
		n, err := ingestListings(c.Context, engine, name, batchSize)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Stored %d listings, waiting for embeddings\n", n)
		engine.WaitForEmbeddings()
	}
	if name := c.String("profiles"); name != "" {
		n, err := ingestProfiles(c.Context, engine, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Stored %d profiles\n", n)
	}
	return nil
}

func ingestListings(ctx context.Context, engine *jobmatch.Engine, name string, batchSize int) (int, error) {
	source, err := linesFromFile(name)
	if err != nil {
		return 0, err
	}
	return ingestBatched(source, batchSize, decodeListing, func(batch []*core.Listing) error {
		_, err := engine.AddListings(ctx, batch...)
		return err
	})
}

func ingestProfiles(ctx context.Context, engine *jobmatch.Engine, name string) (int, error) {
	source, err := linesFromFile(name)
	if err != nil {
		return 0, err
	}
	// Profiles are stored one at a time so a duplicate owner names its line.
	return ingestBatched(source, 1, decodeProfile, func(batch []*core.Profile) error {
		_, err := engine.AddProfile(ctx, batch[0])
		return err
	})
}

func decodeListing(line string) (*core.Listing, error) {
	var record api.Listing
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return nil, err
	}
	listing := record.ToCore()
	listing.Id = 0
	return listing, nil
}

func decodeProfile(line string) (*core.Profile, error) {
	var record profileRecord
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return nil, err
	}
	if record.UserID == 0 {
		return nil, fmt.Errorf("userId is required")
	}
	return &core.Profile{OwnerId: core.ID(record.UserID), Skills: record.Skills}, nil
}

// linesFromFile returns an iterator over the non-blank lines of a file.
// The name "-" reads standard input. A read error is yielded last.
func linesFromFile(name string) (iter.Seq2[string, error], error) {
	var r io.ReadCloser = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		r = f
	}

	return func(yield func(string, error) bool) {
		defer r.Close()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}, nil
}

// ingestBatched decodes lines from source and stores them in batches.
// It returns the number of records stored.
func ingestBatched[T any](
	source iter.Seq2[string, error],
	batchSize int,
	decode func(string) (T, error),
	store func([]T) error,
) (int, error) {
	batch := make([]T, 0, batchSize)
	stored, lineNo := 0, 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store(batch); err != nil {
			return fmt.Errorf("record %d: %w", lineNo, err)
		}
		stored += len(batch)
		batch = batch[:0]
		return nil
	}

	for line, err := range source {
		if err != nil {
			return stored, err
		}
		lineNo++
		record, err := decode(line)
		if err != nil {
			return stored, fmt.Errorf("record %d: %w", lineNo, err)
		}
		batch = append(batch, record)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return stored, err
			}
		}
	}

	if err := flush(); err != nil {
		return stored, err
	}
	return stored, nil
}
