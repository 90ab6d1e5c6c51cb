package cli

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jrsteele09/aams-client/apiclient"
)

// navigator prints a notice when the client forces the user back to login
type navigator struct {
	*apiclient.MemoryNavigator
	w         io.Writer
	loginPath string
	quiet     atomic.Bool
}

func newNavigator(w io.Writer, loginPath string) *navigator {
	return &navigator{MemoryNavigator: apiclient.NewMemoryNavigator("/"), w: w, loginPath: loginPath}
}

func (n *navigator) Navigate(path string) {
	n.MemoryNavigator.Navigate(path)
	if path == n.loginPath && !n.quiet.Load() {
		fmt.Fprintln(n.w, "Session expired, run `aams login` to sign in again.")
	}
}

// silence suppresses the notice for an intentional logout
func (n *navigator) silence() {
	n.quiet.Store(true)
}
