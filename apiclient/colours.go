package apiclient

import (
	"fmt"
	"net/http"
)

// ANSI escapes for DEV console logs
const (
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
	ansiReset   = "\033[0m"
)

var methodColours = map[string]string{
	http.MethodGet:    ansiGreen,
	http.MethodPost:   ansiBlue,
	http.MethodPut:    ansiCyan,
	http.MethodPatch:  ansiMagenta,
	http.MethodDelete: ansiYellow,
}

func (c *Client) colour(code, text string) string {
	if c.env != "DEV" {
		return text
	}
	return code + text + ansiReset
}

// requestLine renders "GET     200" for the request log, coloured in DEV
func (c *Client) requestLine(method string, status int) string {
	methodColour, ok := methodColours[method]
	if !ok {
		methodColour = ansiGray
	}

	statusColour := ansiGreen
	switch {
	case status == http.StatusUnauthorized:
		statusColour = ansiMagenta
	case status >= 500:
		statusColour = ansiRed
	case status >= 400:
		statusColour = ansiYellow
	}
	return c.colour(methodColour, fmt.Sprintf("%-7s", method)) + " " + c.colour(statusColour, fmt.Sprint(status))
}
