package cli

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"tg-channel-reader/internal/app"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/pr"
)

type fetchFlags struct {
	since        string
	limit        int
	textOnly     bool
	delay        float64
	comments     bool
	commentLimit int
	commentDelay float64
	format       string
}

func newFetchCmd(c *cli) *cobra.Command {
	var f fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch <channel> [channel...]",
		Short: "Fetch posts from one or more channels",
		Example: "  tg-reader fetch @durov --since 7d\n" +
			"  tg-reader fetch @a @b --limit 20 --delay 5\n" +
			"  tg-reader fetch @durov --comments --comment-limit 5",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.since, "since", "24h", "time window: 24h, 7d, 2w, or YYYY-MM-DD")
	fl.IntVar(&f.limit, "limit", reader.DefaultLimit, "max posts per channel (30 with --comments unless set)")
	fl.BoolVar(&f.textOnly, "text-only", false, "skip posts without text (media-only without caption)")
	fl.Float64Var(&f.delay, "delay", reader.DefaultChannelDelay.Seconds(), "seconds to wait between channels")
	fl.BoolVar(&f.comments, "comments", false, "fetch comments for each post (single channel only)")
	fl.IntVar(&f.commentLimit, "comment-limit", reader.DefaultCommentLimit, "max comments per post")
	fl.Float64Var(&f.commentDelay, "comment-delay", reader.DefaultCommentDelay.Seconds(), "seconds between comment fetches")
	fl.StringVar(&f.format, "format", formatJSON, "output format: json, text or debug")
	return cmd
}

func (c *cli) runFetch(cmd *cobra.Command, args []string, f fetchFlags) error {
	switch f.format {
	case formatJSON, formatText, formatDebug:
	default:
		return errors.Errorf("unknown --format %q (want json, text or debug)", f.format)
	}
	if f.delay < 0 || f.commentDelay < 0 {
		return errors.New("--delay and --comment-delay must not be negative")
	}

	// Окно разбирается до любой сетевой активности.
	since, err := reader.ParseWindow(f.since, time.Now())
	if err != nil {
		return err
	}
	if f.comments && len(args) > 1 {
		return &app.Error{
			Message: "--comments can only be used with a single channel",
			Action:  app.ActionDropComments,
		}
	}

	limit := f.limit
	if f.comments && !cmd.Flags().Changed("limit") {
		limit = reader.DefaultCommentsLimit
	}
	if limit <= 0 || f.commentLimit <= 0 {
		return errors.New("--limit and --comment-limit must be positive")
	}

	a, err := c.newApp()
	if err != nil {
		return err
	}
	results, err := a.Fetch(cmd.Context(), app.FetchRequest{
		Channels: args,
		Since:    since,
		Limit:    limit,
		TextOnly: f.textOnly,
		Delay:    seconds(f.delay),
		Comments: reader.CommentOptions{
			Enabled: f.comments,
			Limit:   f.commentLimit,
			Delay:   seconds(f.commentDelay),
		},
	})
	if err != nil {
		return err
	}

	switch f.format {
	case formatText:
		writeText(c.out, results, f.since)
	case formatDebug:
		pr.PP(c.out, results)
	default:
		return writeResults(c.out, results)
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
