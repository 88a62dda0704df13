package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/jobmatch/api"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/search"
	"github.com/urfave/cli/v2"
)

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "skip",
			Usage: "Number of results to skip",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of results",
			Value: 10,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print results as JSON",
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search eligible listings by keyword",
		ArgsUsage: "[keyword...]",
		Action:    searchAction,
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "country", Usage: "Only listings in this country"},
			&cli.StringFlag{Name: "city", Usage: "Only listings in this city"},
			&cli.BoolFlag{Name: "explain", Usage: "Print each search stage to stderr"},
		}, pageFlags()...),
	}
}

func searchAction(c *cli.Context) error {
	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	query := search.Query{
		Keyword: strings.Join(c.Args().Slice(), " "),
		Country: c.String("country"),
		City:    c.String("city"),
		Skip:    c.Int("skip"),
		Limit:   c.Int("limit"),
	}

	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = &explainMonitor{w: os.Stderr}
	}
	scored, err := engine.Searcher().SearchWithMonitor(c.Context, query, monitor)
	if err != nil {
		return err
	}

	listings := make([]*core.Listing, len(scored))
	for i, s := range scored {
		listings[i] = s.Listing
	}
	return printListings(os.Stdout, listings, c.Bool("json"))
}

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:   "filter",
		Usage:  "Filter eligible listings by category, type and salary",
		Action: filterAction,
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{Name: "category", Usage: "Accepted category (repeatable)"},
			&cli.StringSliceFlag{Name: "type", Usage: "Accepted employment type (repeatable)"},
			&cli.Float64Flag{Name: "salary-from", Usage: "Minimum salary"},
			&cli.Float64Flag{Name: "salary-to", Usage: "Maximum salary"},
		}, pageFlags()...),
	}
}

func filterAction(c *cli.Context) error {
	spec := core.FilterSpec{
		Categories: c.StringSlice("category"),
		Types:      c.StringSlice("type"),
	}
	if c.IsSet("salary-from") {
		v := c.Float64("salary-from")
		spec.SalaryFrom = &v
	}
	if c.IsSet("salary-to") {
		v := c.Float64("salary-to")
		spec.SalaryTo = &v
	}

	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	listings, err := engine.Filter(c.Context, spec, c.Int("skip"), c.Int("limit"))
	if err != nil {
		return err
	}
	return printListings(os.Stdout, listings, c.Bool("json"))
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:   "recommend",
		Usage:  "Recommend eligible listings for a user",
		Action: recommendAction,
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "user", Usage: "User ID", Required: true},
			&cli.BoolFlag{Name: "json", Usage: "Print results as JSON"},
		},
	}
}

func recommendAction(c *cli.Context) error {
	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	listings, err := engine.Recommend(c.Context, core.ID(c.Uint64("user")))
	if err != nil {
		return err
	}
	return printListings(os.Stdout, listings, c.Bool("json"))
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:   "categories",
		Usage:  "Count eligible listings per category",
		Action: categoriesAction,
	}
}

func categoriesAction(c *cli.Context) error {
	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	counts, err := engine.CategoryCounts(c.Context)
	if err != nil {
		return err
	}
	for _, count := range counts {
		fmt.Printf("%6d  %s\n", count.JobCount, count.CategoryName)
	}
	return nil
}

func printListings(w io.Writer, listings []*core.Listing, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(api.ToListings(listings))
	}

	if len(listings) == 0 {
		fmt.Fprintln(w, "No matching listings")
		return nil
	}
	for _, l := range listings {
		location := strings.Trim(l.City+", "+l.Country, ", ")
		fmt.Fprintf(w, "[%d] %s", l.Id, l.Title)
		if l.Company != "" {
			fmt.Fprintf(w, " at %s", l.Company)
		}
		if location != "" {
			fmt.Fprintf(w, " (%s)", location)
		}
		fmt.Fprintf(w, " apply before %s\n", l.ApplyBefore.Format("2006-01-02"))
	}
	return nil
}
