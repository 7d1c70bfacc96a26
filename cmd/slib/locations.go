package main

import (
	"context"
	"fmt"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var locationsCmd = &cobra.Command{
	Use:     "locations",
	Aliases: []string{"location", "venues"},
	Short:   "List and manage event locations",
}

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List locations",
	Args:  cobra.NoArgs,
	RunE:  runLocationsList,
}

var locationsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a location",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocationsCreate,
}

var locationsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a location; fields not given keep their value",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocationsUpdate,
}

var locationsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a location",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocationsDelete,
}

func init() {
	rootCmd.AddCommand(locationsCmd)
	locationsCmd.AddCommand(locationsListCmd, locationsCreateCmd, locationsUpdateCmd, locationsDeleteCmd)

	locationsListCmd.Flags().Bool("active", false, "only active locations")
	locationsListCmd.Flags().StringP("search", "s", "", "filter by name, city or address")
	locationsListCmd.Flags().Bool("json", false, "print JSON")

	for _, c := range []*cobra.Command{locationsCreateCmd, locationsUpdateCmd} {
		c.Flags().String("address", "", "street address")
		c.Flags().String("city", "", "city")
		c.Flags().String("postal-code", "", "postal code")
		c.Flags().String("country", "", "country")
		c.Flags().Int("capacity", 0, "seats")
		c.Flags().String("email", "", "contact email")
		c.Flags().String("phone", "", "contact phone")
		c.Flags().String("website", "", "website")
		c.Flags().String("maps-url", "", "Google Maps link")
		c.Flags().String("notes", "", "notes")
		c.Flags().Bool("active", true, "location is in use")
	}
	locationsUpdateCmd.Flags().String("name", "", "name")

	addYesFlag(locationsDeleteCmd)
}

func runLocationsList(cmd *cobra.Command, args []string) error {
	active, _ := cmd.Flags().GetBool("active")
	query, _ := cmd.Flags().GetString("search")
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		locs, err := a.client.ListLocations(ctx, active)
		if err != nil {
			return err
		}
		locs = search.Filter(locs, query, search.LocationFields)
		if asJSON {
			return printJSON(cmd.OutOrStdout(), locs)
		}

		t := newTable(cmd, "ID", "NAME", "CITY", "CAPACITY", "ACTIVE", "CONTACT")
		for _, l := range locs {
			contact := l.ContactEmail
			if contact == "" {
				contact = l.ContactPhone
			}
			t.row(l.ID, l.Name, orDash(l.City), l.Capacity, l.IsActive, orDash(contact))
		}
		t.flush()
		return nil
	})
}

// locationInput takes only the flags that were set, so a PATCH leaves the rest alone
func locationInput(cmd *cobra.Command) api.LocationInput {
	f := cmd.Flags()
	get := func(name string) string {
		if !f.Changed(name) {
			return ""
		}
		v, _ := f.GetString(name)
		return v
	}

	in := api.LocationInput{
		Name:         get("name"),
		Address:      get("address"),
		City:         get("city"),
		PostalCode:   get("postal-code"),
		Country:      get("country"),
		ContactEmail: get("email"),
		ContactPhone: get("phone"),
		Website:      get("website"),
		GoogleURL:    get("maps-url"),
		Notes:        get("notes"),
	}
	if f.Changed("capacity") {
		v, _ := f.GetInt("capacity")
		in.Capacity = &v
	}
	if f.Changed("active") {
		v, _ := f.GetBool("active")
		in.IsActive = &v
	}
	return in
}

func runLocationsCreate(cmd *cobra.Command, args []string) error {
	in := locationInput(cmd)
	in.Name = args[0]

	return withApp(cmd, func(ctx context.Context, a *app) error {
		l, err := a.client.CreateLocation(ctx, in)
		if err != nil {
			return a.mutation(report.EventCreate, "location", 0, err)
		}
		a.mutation(report.EventCreate, "location", l.ID, nil)
		util.SuccessLog("Created location %d %s", l.ID, l.Name)
		return nil
	})
}

func runLocationsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in := locationInput(cmd)

	return withApp(cmd, func(ctx context.Context, a *app) error {
		l, err := a.client.UpdateLocation(ctx, id, in)
		if err := a.mutation(report.EventUpdate, "location", id, err); err != nil {
			return err
		}
		util.SuccessLog("Updated location %d %s", l.ID, l.Name)
		return nil
	})
}

func runLocationsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("location %d", id)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.mutation(report.EventDelete, "location", id, a.client.DeleteLocation(ctx, id)); err != nil {
			return err
		}
		util.SuccessLog("Deleted location %d", id)
		return nil
	})
}
