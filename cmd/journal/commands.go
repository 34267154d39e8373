package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/client"
	"github.com/ayush/travel-journal/backend/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		mirror := client.NewJournalMirror(api)
		if err := mirror.Load(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderList(mirror.Entries()))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		j, err := api.GetJournal(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCard(*j))
		return nil
	},
}

// entryFlags are shared by create, update and summarize.
type entryFlags struct {
	name       string
	locations  []string
	start      string
	end        string
	summary    string
	cover      string
	rating     int
	companions []string
	highlights []string
	tags       []string
}

func (f *entryFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "trip title")
	fs.StringSliceVar(&f.locations, "location", nil, "location (repeatable)")
	fs.StringVar(&f.start, "start", "", "start date YYYY-MM-DD")
	fs.StringVar(&f.end, "end", "", "end date YYYY-MM-DD")
	fs.StringVar(&f.summary, "summary", "", "your own notes")
	fs.StringVar(&f.cover, "cover", "", "cover image URL")
	fs.IntVar(&f.rating, "rating", 0, "rating 1-5, 0 for none")
	fs.StringSliceVar(&f.companions, "companion", nil, "companion (repeatable)")
	fs.StringSliceVar(&f.highlights, "highlight", nil, "highlight (repeatable)")
	fs.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable)")
}

// parseDate returns nil for an empty value.
func parseDate(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &d, nil
}

func ratingPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func (f *entryFlags) input() (models.JournalInput, error) {
	start, err := parseDate(f.start)
	if err != nil {
		return models.JournalInput{}, err
	}
	end, err := parseDate(f.end)
	if err != nil {
		return models.JournalInput{}, err
	}
	return models.JournalInput{
		Name:       f.name,
		Locations:  f.locations,
		StartDate:  start,
		EndDate:    end,
		Summary:    f.summary,
		CoverImage: f.cover,
		Rating:     ratingPtr(f.rating),
		Companions: f.companions,
		Highlights: f.highlights,
		Tags:       f.tags,
	}, nil
}

// patch includes only the flags the user actually passed.
func (f *entryFlags) patch(fs *pflag.FlagSet) (models.JournalPatch, error) {
	var p models.JournalPatch
	if fs.Changed("name") {
		p.Name = models.Some(f.name)
	}
	if fs.Changed("location") {
		p.Locations = models.Some(f.locations)
	}
	if fs.Changed("start") {
		d, err := parseDate(f.start)
		if err != nil {
			return p, err
		}
		p.StartDate = models.Some(d)
	}
	if fs.Changed("end") {
		d, err := parseDate(f.end)
		if err != nil {
			return p, err
		}
		p.EndDate = models.Some(d)
	}
	if fs.Changed("summary") {
		p.Summary = models.Some(f.summary)
	}
	if fs.Changed("cover") {
		p.CoverImage = models.Some(f.cover)
	}
	if fs.Changed("rating") {
		p.Rating = models.Some(ratingPtr(f.rating))
	}
	if fs.Changed("companion") {
		p.Companions = models.Some(f.companions)
	}
	if fs.Changed("highlight") {
		p.Highlights = models.Some(f.highlights)
	}
	if fs.Changed("tag") {
		p.Tags = models.Some(f.tags)
	}
	return p, nil
}

// waitIndicator prints a dot per second while the mirror is busy.
func waitIndicator(cmd *cobra.Command, mirror *client.JournalMirror) func() {
	done := make(chan struct{})
	go func() {
		fmt.Fprint(cmd.ErrOrStderr(), mutedStyle.Render("generating summary"))
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-done:
				fmt.Fprintln(cmd.ErrOrStderr())
				return
			case <-tick.C:
				if mirror.Busy() {
					fmt.Fprint(cmd.ErrOrStderr(), mutedStyle.Render("."))
				}
			}
		}
	}()
	return func() { close(done) }
}

var createFlags entryFlags

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an entry; the server writes an AI summary before answering",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := createFlags.input()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		mirror := client.NewJournalMirror(api)
		stop := waitIndicator(cmd, mirror)
		j, err := mirror.Create(ctx, in)
		stop()
		if err != nil {
			return err
		}
		logger.Debug("created", zap.String("id", j.ID))
		fmt.Fprintln(cmd.OutOrStdout(), renderCard(*j))
		return nil
	},
}

var (
	updateFlags      entryFlags
	updateRegenerate bool
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change the given fields of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := updateFlags.patch(cmd.Flags())
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		mirror := client.NewJournalMirror(api)
		var stop func()
		if updateRegenerate {
			stop = waitIndicator(cmd, mirror)
		}
		j, err := mirror.Update(ctx, args[0], models.UpdateJournalRequest{JournalPatch: p, RegenerateAI: updateRegenerate})
		if stop != nil {
			stop()
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCard(*j))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := client.NewJournalMirror(api).Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("deleted "+args[0]))
		return nil
	},
}

var summarizeFlags entryFlags

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Preview an AI summary without saving",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := summarizeFlags.input()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		text, err := api.Summarize(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(text))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show past summary generations for an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		recs, err := api.Summaries(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderHistory(recs))
		return nil
	},
}

var loginReq models.LoginRequest

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in; an unknown username is reserved and must then register",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := api.Login(ctx, loginReq)
		if err != nil {
			return err
		}
		if res.NeedsRegistration {
			fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(
				fmt.Sprintf("%q is not registered yet; run: journal register --username %s ...", loginReq.Username, loginReq.Username)))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderUser(*res.User))
		return nil
	},
}

var registerReq models.RegisterRequest

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		u, err := api.Register(ctx, registerReq)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderUser(*u))
		return nil
	},
}

func init() {
	createFlags.register(createCmd.Flags())
	updateFlags.register(updateCmd.Flags())
	updateCmd.Flags().BoolVar(&updateRegenerate, "regenerate", false, "regenerate the AI summary from the fields given")
	summarizeFlags.register(summarizeCmd.Flags())

	loginCmd.Flags().StringVar(&loginReq.Username, "username", "", "username")
	loginCmd.Flags().StringVar(&loginReq.Password, "password", "", "password")

	registerCmd.Flags().StringVar(&registerReq.Username, "username", "", "username")
	registerCmd.Flags().StringVar(&registerReq.Password, "password", "", "password")
	registerCmd.Flags().StringVar(&registerReq.Email, "email", "", "email")
	registerCmd.Flags().StringVar(&registerReq.FullName, "full-name", "", "full name")
}
