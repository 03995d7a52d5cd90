package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/service"
	"github.com/urfave/cli/v2"
)

func argN(c *cli.Context, n int, usage string) ([]string, error) {
	if c.NArg() != n {
		return nil, fmt.Errorf("usage: %s %s", c.Command.FullName(), usage)
	}
	return c.Args().Slice(), nil
}

func teamCommand() *cli.Command {
	return &cli.Command{
		Name:  "team",
		Usage: "Manage teams",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a team with the given captain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "captain", Usage: "Captain user id", Required: true},
					&cli.StringFlag{Name: "captain-name"},
					&cli.StringFlag{Name: "logo"},
					&cli.IntFlag{Name: "max-members", Usage: "0 uses the server default"},
				},
				Action: func(c *cli.Context) error {
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						return client.CreateTeam(ctx, service.CreateTeamRequest{
							Name:        c.String("name"),
							Logo:        c.String("logo"),
							CaptainID:   c.String("captain"),
							CaptainName: c.String("captain-name"),
							MaxMembers:  c.Int("max-members"),
						})
					})
				},
			},
			{
				Name:      "join",
				Usage:     "Add a user to a team",
				ArgsUsage: "TEAM_ID USER_ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "name", Usage: "Display name"}},
				Action: func(c *cli.Context) error {
					args, err := argN(c, 2, "TEAM_ID USER_ID")
					if err != nil {
						return err
					}
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						return client.JoinTeam(ctx, args[0], args[1], c.String("name"))
					})
				},
			},
			{
				Name:      "leave",
				Usage:     "Remove a user from a team",
				ArgsUsage: "TEAM_ID USER_ID",
				Action: func(c *cli.Context) error {
					args, err := argN(c, 2, "TEAM_ID USER_ID")
					if err != nil {
						return err
					}
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						return client.LeaveTeam(ctx, args[0], args[1])
					})
				},
			},
			{
				Name:      "show",
				Usage:     "Show a team, or every team when no id is given",
				ArgsUsage: "[TEAM_ID]",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "user", Usage: "Show the team this user belongs to"}},
				Action: func(c *cli.Context) error {
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						switch {
						case c.String("user") != "":
							return client.TeamOf(ctx, c.String("user"))
						case c.NArg() > 0:
							return client.GetTeam(ctx, c.Args().First())
						default:
							return client.ListTeams(ctx)
						}
					})
				},
			},
		},
	}
}

func eventCommand() *cli.Command {
	eventAction := func(fn func(ctx context.Context, client *service.CompetitionClient, eventID string) (interface{}, error)) cli.ActionFunc {
		return func(c *cli.Context) error {
			args, err := argN(c, 1, "EVENT_ID")
			if err != nil {
				return err
			}
			return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
				return fn(ctx, client, args[0])
			})
		}
	}

	return &cli.Command{
		Name:  "event",
		Usage: "Manage events",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an upcoming event",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "game", Required: true},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "region"},
					&cli.TimestampFlag{Name: "start", Layout: time.RFC3339, Required: true},
					&cli.TimestampFlag{Name: "end", Layout: time.RFC3339, Required: true},
					&cli.IntFlag{Name: "max-teams"},
					&cli.IntFlag{Name: "min-team-size"},
					&cli.IntFlag{Name: "max-team-size"},
					&cli.StringSliceFlag{Name: "rule"},
					&cli.StringSliceFlag{Name: "reward"},
				},
				Action: func(c *cli.Context) error {
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						return client.CreateEvent(ctx, service.CreateEventRequest{
							Name:        c.String("name"),
							Game:        c.String("game"),
							Category:    c.String("category"),
							Region:      c.String("region"),
							StartDate:   *c.Timestamp("start"),
							EndDate:     *c.Timestamp("end"),
							MaxTeams:    c.Int("max-teams"),
							MinTeamSize: c.Int("min-team-size"),
							MaxTeamSize: c.Int("max-team-size"),
							Rules:       c.StringSlice("rule"),
							Rewards:     c.StringSlice("reward"),
						})
					})
				},
			},
			{
				Name:  "list",
				Usage: "List events",
				Flags: []cli.Flag{&cli.StringFlag{Name: "status", Usage: "upcoming, active or completed"}},
				Action: func(c *cli.Context) error {
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						return client.ListEvents(ctx, c.String("status"))
					})
				},
			},
			{
				Name:      "show",
				ArgsUsage: "EVENT_ID",
				Action: eventAction(func(ctx context.Context, client *service.CompetitionClient, id string) (interface{}, error) {
					return client.GetEvent(ctx, id)
				}),
			},
			{
				Name:      "register",
				Usage:     "Register a team for an event",
				ArgsUsage: "EVENT_ID TEAM_ID",
				Action: func(c *cli.Context) error {
					args, err := argN(c, 2, "EVENT_ID TEAM_ID")
					if err != nil {
						return err
					}
					return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
						return client.RegisterTeam(ctx, args[0], args[1])
					})
				},
			},
			{
				Name:      "start",
				ArgsUsage: "EVENT_ID",
				Action: eventAction(func(ctx context.Context, client *service.CompetitionClient, id string) (interface{}, error) {
					return client.StartEvent(ctx, id)
				}),
			},
			{
				Name:      "end",
				ArgsUsage: "EVENT_ID",
				Action: eventAction(func(ctx context.Context, client *service.CompetitionClient, id string) (interface{}, error) {
					return client.EndEvent(ctx, id)
				}),
			},
			{
				Name:      "rankings",
				ArgsUsage: "EVENT_ID",
				Action: eventAction(func(ctx context.Context, client *service.CompetitionClient, id string) (interface{}, error) {
					return client.GetRankings(ctx, id)
				}),
			},
			{
				Name:      "stats",
				ArgsUsage: "EVENT_ID",
				Action: eventAction(func(ctx context.Context, client *service.CompetitionClient, id string) (interface{}, error) {
					return client.GetEventStats(ctx, id)
				}),
			},
		},
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit a member's time in seconds",
		ArgsUsage: "EVENT_ID TEAM_ID USER_ID SECONDS",
		Flags:     []cli.Flag{&cli.StringFlag{Name: "proof", Usage: "Link to a video or screenshot"}},
		Action: func(c *cli.Context) error {
			args, err := argN(c, 4, "EVENT_ID TEAM_ID USER_ID SECONDS")
			if err != nil {
				return err
			}
			var seconds float64
			if _, err := fmt.Sscan(args[3], &seconds); err != nil {
				return fmt.Errorf("invalid time %q: %w", args[3], err)
			}
			return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
				return client.SubmitTime(ctx, args[0], service.SubmitTimeRequest{
					TeamID: args[1],
					UserID: args[2],
					Time:   seconds,
					Proof:  c.String("proof"),
				})
			})
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Report a finished event result for a user",
		ArgsUsage: "USER_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "event", Required: true},
			&cli.StringFlag{Name: "team", Required: true},
			&cli.IntFlag{Name: "rank", Required: true},
			&cli.Float64Flag{Name: "team-time", Required: true},
			&cli.Float64Flag{Name: "personal-time"},
		},
		Action: func(c *cli.Context) error {
			args, err := argN(c, 1, "USER_ID")
			if err != nil {
				return err
			}
			return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
				return client.ReportEventResult(ctx, args[0], service.ReportEventResultRequest{
					UserName:     c.String("name"),
					EventID:      c.String("event"),
					TeamID:       c.String("team"),
					TeamRank:     c.Int("rank"),
					TeamTime:     c.Float64("team-time"),
					PersonalTime: c.Float64("personal-time"),
				})
			})
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Show a user's competition profile",
		ArgsUsage: "USER_ID",
		Action: func(c *cli.Context) error {
			args, err := argN(c, 1, "USER_ID")
			if err != nil {
				return err
			}
			return call(c, func(ctx context.Context, client *service.CompetitionClient) (interface{}, error) {
				return client.GetProfile(ctx, args[0])
			})
		},
	}
}
