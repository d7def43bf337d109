package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

var errNotLoggedIn = errors.New("not logged in, run `salonctl login` first")

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printTableHeader(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}
