// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/directory"
	"github.com/danielhkuo/campus-vote/election"
	"github.com/danielhkuo/campus-vote/models"
)

// operatorID is recorded as the acting admin in service logs
const operatorID = "electionctl"

func newApp() *cli.App {
	dbFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "database URL",
			EnvVars:  []string{"DATABASE_URL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "database type (sqlite or postgres)",
			EnvVars: []string{"DATABASE_TYPE"},
			Value:   db.TypeSQLite,
		},
		&cli.StringFlag{
			Name:     "institute",
			Aliases:  []string{"i"},
			Usage:    "institute to operate on",
			EnvVars:  []string{"INSTITUTE"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "election",
			Aliases: []string{"e"},
			Usage:   "election ID (default: the current election)",
		},
	}

	return &cli.App{
		Name:  "electionctl",
		Usage: "inspect and repair campus elections",
		Commands: []*cli.Command{
			{
				Name:   "results",
				Usage:  "print per-role results counted from the ballot ledger",
				Flags:  dbFlags,
				Action: resultsAction,
			},
			{
				Name:   "reconcile",
				Usage:  "rewrite stored vote counts from the ballot ledger",
				Flags:  dbFlags,
				Action: reconcileAction,
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for development",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: auth.RoleStudent},
					&cli.StringFlag{Name: "institute", Aliases: []string{"i"}, EnvVars: []string{"INSTITUTE"}, Required: true},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, 0 for none", Value: 24 * time.Hour},
					&cli.StringFlag{Name: "secret", EnvVars: []string{"TOKEN_SECRET"}, Required: true},
				},
				Action: tokenAction,
			},
		},
	}
}

// openService connects and resolves the election the command targets
func openService(c *cli.Context) (*sql.DB, *election.Service, auth.Identity, string, error) {
	conn, err := db.Open(c.String("type"), c.String("db"))
	if err != nil {
		return nil, nil, auth.Identity{}, "", cli.Exit(err.Error(), 1)
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, nil, auth.Identity{}, "", err
	}

	svc := election.NewService(conn, directory.NewSQLDirectory(conn))
	operator := auth.Identity{UserID: operatorID, Role: auth.RoleAdmin, Institute: c.String("institute")}

	electionID := c.String("election")
	if electionID == "" {
		state, err := svc.Current(c.Context, operator)
		if err != nil {
			conn.Close()
			return nil, nil, auth.Identity{}, "", err
		}
		if state.Election == nil {
			conn.Close()
			return nil, nil, auth.Identity{}, "", cli.Exit("no elections for institute "+operator.Institute, 1)
		}
		electionID = state.Election.ID
	}

	return conn, svc, operator, electionID, nil
}

func resultsAction(c *cli.Context) error {
	conn, svc, operator, electionID, err := openService(c)
	if err != nil {
		return err
	}
	defer conn.Close()

	e, results, err := svc.Results(c.Context, operator, electionID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	printResults(c.App.Writer, e, results)
	return nil
}

func printResults(w io.Writer, e models.Election, results []models.RoleResult) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "\n=== %s ===\n", e.Title)

	status := e.Status
	if e.Status == models.StatusActive {
		status = fmt.Sprintf("%s, closes %s", status, humanize.Time(e.EndTime))
	}
	fmt.Fprintf(w, "%s (%s)\n", e.ID, status)

	var total, drifted int
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Role", "Candidate", "Ballots", "Stored", "Drift"})
	for _, role := range results {
		for _, r := range role.Candidates {
			total += r.Ballots
			mark := ""
			if r.Drift {
				drifted++
				mark = "!"
			}
			table.Append([]string{
				role.Role,
				r.Name,
				humanize.Comma(int64(r.Ballots)),
				humanize.Comma(int64(r.VoteCount)),
				mark,
			})
		}
	}
	table.Render()

	fmt.Fprintf(w, "%s ballots\n", humanize.Comma(int64(total)))
	if drifted > 0 {
		color.New(color.FgRed).Fprintf(w, "%d candidate(s) drifted, run reconcile\n", drifted)
	}
}

func reconcileAction(c *cli.Context) error {
	conn, svc, operator, electionID, err := openService(c)
	if err != nil {
		return err
	}
	defer conn.Close()

	repaired, err := svc.Reconcile(c.Context, operator, electionID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if repaired == 0 {
		color.New(color.FgGreen).Fprintf(c.App.Writer, "%s: all vote counts match the ledger\n", electionID)
		return nil
	}
	color.New(color.FgYellow).Fprintf(c.App.Writer, "%s: repaired %s candidate(s)\n", electionID, humanize.Comma(int64(repaired)))
	return nil
}

func tokenAction(c *cli.Context) error {
	role := c.String("role")
	switch role {
	case auth.RoleAdmin, auth.RoleStudent, auth.RoleProfessor:
	default:
		return cli.Exit("unknown role "+strconv.Quote(role), 1)
	}

	id := auth.Identity{
		UserID:    c.String("user"),
		Role:      role,
		Institute: c.String("institute"),
	}
	if ttl := c.Duration("ttl"); ttl > 0 {
		id.ExpiresAt = time.Now().Add(ttl).Unix()
	}

	token, err := auth.IssueToken(id, c.String("secret"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}
