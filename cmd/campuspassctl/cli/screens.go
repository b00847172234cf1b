package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/campuspass/campuspass-admin/internal/screens"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

var filterKinds = map[tableview.FilterKind]string{
	tableview.FilterExact: "exact",
	tableview.FilterDay:   "day",
	tableview.FilterFrom:  "from",
	tableview.FilterTo:    "to",
}

// ScreensCommand lists every screen with the filter keys an export profile
// may set.
func ScreensCommand(out io.Writer, display *timefmt.Display) int {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCREEN\tFILTER\tKIND\tOPTIONS")
	for _, name := range screens.Names() {
		cfg, err := screens.Config(name, display)
		if err != nil {
			fmt.Fprintf(out, "screens: %v\n", err)
			return ExitError
		}
		if len(cfg.SearchFields) > 0 {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, tableview.SearchKey, "text", strings.Join(cfg.SearchFields, ","))
		}
		for _, f := range cfg.Filters {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, f.Key, filterKinds[f.Kind], strings.Join(f.Options, ","))
		}
	}
	if err := tw.Flush(); err != nil {
		return ExitError
	}
	return ExitOK
}
