package tui

import (
	"fmt"
	"strings"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgRefreshingNews = "Refreshing news…"
	MsgNoResults      = "No results"
	MsgNotOnDetail    = "Open an anime or manga first"
	MsgNothingToOpen  = "Nothing to open here"
	MsgFindEmpty      = "Nothing indexed yet, browse some titles first"
	MsgHistoryCleared = "Recent searches cleared"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgNewsRefreshed(n int) string {
	return fmt.Sprintf("News refreshed • %d headlines", n)
}

func MsgOpened(url string) string {
	return "Opened " + truncateMiddle(strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://"), 60)
}

// noticeKind grades the controller's one-line notices.
func noticeKind(notice string) StatusKind {
	switch {
	case strings.HasPrefix(notice, "Update failed"):
		return StatusError
	case strings.HasPrefix(notice, "Saving"):
		return StatusInfo
	case notice != "":
		return StatusSuccess
	}
	return StatusInfo
}
