package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/cache"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
)

func printResponse(w io.Writer, resp *service.UpdateResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(w, resp.Message)
	if len(resp.Changes) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tFROM\tTO\tREASON")
	for _, c := range resp.Changes {
		from := c.From.String()
		if c.From == domain.StatusNone {
			from = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", c.EntityType, c.EntityID, from, c.To, c.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rows affected\n", resp.AffectedRows)
	return nil
}

func printProfileView(w io.Writer, view *cache.ProfileView, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	if len(view.Shows) == 0 && len(view.Movies) == 0 {
		fmt.Fprintf(w, "Profile %d tracks nothing yet\n", view.ProfileID)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tSTATUS")
	for _, s := range view.Shows {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", domain.KindShow, s.ID, s.Status)
	}
	for _, m := range view.Movies {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", domain.KindMovie, m.ID, m.Status)
	}
	return tw.Flush()
}
