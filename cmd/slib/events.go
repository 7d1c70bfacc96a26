package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"event"},
	Short:   "List and manage concerts, rehearsals and other events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	Args:  cobra.NoArgs,
	RunE:  runEventsList,
}

var eventsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show an event with its location and repertoire",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsShow,
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event",
	Long: `Create an event. Times are RFC3339 or "2006-01-02 15:04" in local time.
New events start as DRAFT unless --status is given.`,
	Args: cobra.NoArgs,
	RunE: runEventsCreate,
}

var eventsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change an event; fields not given keep their value",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsUpdate,
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsDelete,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd, eventsShowCmd, eventsCreateCmd, eventsUpdateCmd, eventsDeleteCmd)

	for _, action := range []api.EventAction{api.ActionDuplicate, api.ActionCancel, api.ActionComplete} {
		eventsCmd.AddCommand(eventActionCmd(action))
	}

	eventsListCmd.Flags().String("status", "", "DRAFT, CONFIRMED, CANCELLED or COMPLETED")
	eventsListCmd.Flags().StringP("search", "s", "", "filter by title, type, status, location or description")
	eventsListCmd.Flags().Bool("upcoming", false, "only events that have not started")
	eventsListCmd.Flags().Bool("json", false, "print JSON")

	eventsShowCmd.Flags().Bool("json", false, "print JSON")

	for _, c := range []*cobra.Command{eventsCreateCmd, eventsUpdateCmd} {
		c.Flags().String("title", "", "title")
		c.Flags().String("type", "", "CONCERT, REHEARSAL, RECORDING, WORKSHOP or OTHER")
		c.Flags().String("status", "", "DRAFT, CONFIRMED, CANCELLED or COMPLETED")
		c.Flags().String("description", "", "description")
		c.Flags().String("start", "", "start time")
		c.Flags().String("end", "", "end time")
		c.Flags().Int("location", 0, "location id")
		c.Flags().Int("repertoire", 0, "repertoire id")
		c.Flags().Bool("public", false, "show the event publicly")
		c.Flags().Int("max-attendees", 0, "attendance limit")
		c.Flags().String("price", "", "ticket price, e.g. 12.50")
	}
	eventsCreateCmd.MarkFlagRequired("title")
	eventsCreateCmd.MarkFlagRequired("start")
	eventsCreateCmd.MarkFlagRequired("end")

	addYesFlag(eventsDeleteCmd)
}

func eventActionCmd(action api.EventAction) *cobra.Command {
	short := map[api.EventAction]string{
		api.ActionDuplicate: "Copy an event as a new draft",
		api.ActionCancel:    "Mark an event cancelled",
		api.ActionComplete:  "Mark an event completed",
	}[action]

	return &cobra.Command{
		Use:   string(action) + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				e, err := a.client.EventAction(ctx, id, action)
				if err := a.mutation(report.EventUpdate, "event/"+string(action), id, err); err != nil {
					return err
				}
				if action == api.ActionDuplicate {
					util.SuccessLog("Duplicated event %d as %d %s", id, e.ID, e.Title)
					return nil
				}
				util.SuccessLog("Event %d %s is now %s", e.ID, e.Title, e.Status)
				return nil
			})
		},
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseTime accepts RFC3339 or a local date and time
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use RFC3339 or \"2006-01-02 15:04\"): %w", s, util.ErrValidation)
}

// eventInput collects the flags that were set; unset flags stay absent so an
// update leaves them alone
func eventInput(cmd *cobra.Command) (catalog.EventInput, error) {
	var in catalog.EventInput
	f := cmd.Flags()

	in.Title, _ = f.GetString("title")
	in.Description, _ = f.GetString("description")
	in.Price, _ = f.GetString("price")
	t, _ := f.GetString("type")
	in.EventType = catalog.EventType(strings.ToUpper(t))
	s, _ := f.GetString("status")
	in.Status = catalog.EventStatus(strings.ToUpper(s))

	for _, name := range []string{"start", "end"} {
		if !f.Changed(name) {
			continue
		}
		raw, _ := f.GetString(name)
		ts, err := parseTime(raw)
		if err != nil {
			return in, fmt.Errorf("--%s: %w", name, err)
		}
		if name == "start" {
			in.StartDatetime = &ts
		} else {
			in.EndDatetime = &ts
		}
	}

	if f.Changed("location") {
		v, _ := f.GetInt("location")
		in.LocationID = &v
	}
	if f.Changed("repertoire") {
		v, _ := f.GetInt("repertoire")
		in.RepertoireID = &v
	}
	if f.Changed("public") {
		v, _ := f.GetBool("public")
		in.IsPublic = &v
	}
	if f.Changed("max-attendees") {
		v, _ := f.GetInt("max-attendees")
		in.MaxAttendees = &v
	}
	return in, nil
}

func runEventsList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	query, _ := cmd.Flags().GetString("search")
	upcoming, _ := cmd.Flags().GetBool("upcoming")
	asJSON, _ := cmd.Flags().GetBool("json")

	st := catalog.EventStatus(strings.ToUpper(status))
	if st != "" && !st.Valid() {
		return fmt.Errorf("unknown event status %q: %w", status, util.ErrValidation)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		events, err := a.client.ListEvents(ctx, st)
		if err != nil {
			return err
		}
		events = search.Filter(events, query, search.EventFields)
		if upcoming {
			now := time.Now()
			kept := events[:0]
			for _, e := range events {
				if e.StartDatetime.After(now) {
					kept = append(kept, e)
				}
			}
			events = kept
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), events)
		}

		t := newTable(cmd, "ID", "START", "TITLE", "TYPE", "STATUS", "LOCATION")
		for _, e := range events {
			loc := "-"
			if e.Location != nil {
				loc = e.Location.Name
			}
			t.row(e.ID, e.StartDatetime.Local().Format("2006-01-02 15:04"), e.Title, e.EventType, e.Status, loc)
		}
		t.flush()
		return nil
	})
}

func runEventsShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		e, err := a.client.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), e)
		}

		out := cmd.OutOrStdout()
		field(out, "Event", fmt.Sprintf("%d %s", e.ID, e.Title))
		field(out, "Type", e.EventType)
		field(out, "Status", e.Status)
		field(out, "When", fmt.Sprintf("%s to %s (%s)",
			e.StartDatetime.Local().Format("Mon 2006-01-02 15:04"),
			e.EndDatetime.Local().Format("15:04"),
			ago(e.StartDatetime)))
		if e.Location != nil {
			field(out, "Location", fmt.Sprintf("%s, %s", e.Location.Name, e.Location.City))
			field(out, "Map", e.Location.GoogleURL)
		}
		field(out, "Public", e.IsPublic)
		if e.MaxAttendees != nil {
			field(out, "Max attendees", *e.MaxAttendees)
		}
		field(out, "Price", e.Price)
		field(out, "Description", e.Description)

		if e.Repertoire != nil {
			fmt.Fprintln(out)
			field(out, "Repertoire", fmt.Sprintf("%d %s", e.Repertoire.ID, e.Repertoire.Name))
			for _, rv := range e.Repertoire.Versions {
				fmt.Fprintf(out, "  %2d. %s\n", rv.Order, rv.Version.DisplayTitle())
			}
		}
		return nil
	})
}

func runEventsCreate(cmd *cobra.Command, args []string) error {
	in, err := eventInput(cmd)
	if err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = catalog.EventDraft
	}
	if in.EventType == "" {
		in.EventType = catalog.EventConcert
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		e, err := a.client.CreateEvent(ctx, in)
		if err != nil {
			return a.mutation(report.EventCreate, "event", 0, err)
		}
		a.mutation(report.EventCreate, "event", e.ID, nil)
		util.SuccessLog("Created event %d %s on %s", e.ID, e.Title, e.StartDatetime.Local().Format("2006-01-02"))
		return nil
	})
}

func runEventsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in, err := eventInput(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		// a single changed end point is checked against the stored other one
		if (in.StartDatetime == nil) != (in.EndDatetime == nil) {
			current, err := a.client.GetEvent(ctx, id)
			if err != nil {
				return err
			}
			if in.StartDatetime == nil {
				in.StartDatetime = &current.StartDatetime
			} else {
				in.EndDatetime = &current.EndDatetime
			}
		}

		e, err := a.client.UpdateEvent(ctx, id, in)
		if err := a.mutation(report.EventUpdate, "event", id, err); err != nil {
			return err
		}
		util.SuccessLog("Updated event %d %s", e.ID, e.Title)
		return nil
	})
}

func runEventsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("event %d", id)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.mutation(report.EventDelete, "event", id, a.client.DeleteEvent(ctx, id)); err != nil {
			return err
		}
		util.SuccessLog("Deleted event %d", id)
		return nil
	})
}
