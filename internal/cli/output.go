package cli

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/internal/utils"
)

func newTable(w io.Writer, headers ...any) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row(tw, headers...)
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s *string) string {
	return utils.ValueOr(s, "-")
}

// loginError carries the login form message for a failed login
type loginError struct {
	msg string
	err error
}

func (e *loginError) Error() string { return e.msg }
func (e *loginError) Unwrap() error { return e.err }

// errorMessage is the text printed for a failed command
func errorMessage(err error) string {
	var le *loginError
	if errors.As(err, &le) {
		return le.msg
	}
	if apiErr, ok := apiclient.AsError(err); ok {
		msg := apiErr.UserMessage()
		if apiErr.StatusCode != http.StatusBadRequest {
			return msg
		}
		fields := apiErr.FieldErrors()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			msg += fmt.Sprintf("\n  %s: %s", name, strings.Join(fields[name], " "))
		}
		return msg
	}
	return err.Error()
}
