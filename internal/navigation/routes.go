// Package navigation implements the route table and back stack that move a
// session between screens.
package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Route patterns
const (
	RouteLogin         = "login"
	RouteRegister      = "register"
	RouteHome          = "home"
	RouteNotifications = "notifications"
	RouteCamera        = "camera"
	RouteLiked         = "liked"
	RouteProfile       = "profile"
	RouteSearchUsers   = "search_users"
	RouteChatList      = "chat_list"
	RouteChatRoom      = "chat_room/{partnerName}"
)

// ParamPartnerName is the chat room route parameter
const ParamPartnerName = "partnerName"

// StartRoute is the first entry of every back stack
const StartRoute = RouteLogin

// ErrUnknownRoute is returned for routes matching no pattern
var ErrUnknownRoute = errors.New("unknown route")

// Entry is one frame of the back stack
type Entry struct {
	Pattern string            `json:"pattern"`
	Route   string            `json:"route"`
	Params  map[string]string `json:"params,omitempty"`
}

// Param returns a route parameter or "" when absent
func (e Entry) Param(name string) string {
	return e.Params[name]
}

// Table maps route names to patterns, optionally with {param} segments
type Table struct {
	patterns []string
}

// NewTable builds a table from patterns
func NewTable(patterns ...string) *Table {
	return &Table{patterns: patterns}
}

// DefaultTable holds every screen of the app
func DefaultTable() *Table {
	return NewTable(
		RouteLogin,
		RouteRegister,
		RouteHome,
		RouteNotifications,
		RouteCamera,
		RouteLiked,
		RouteProfile,
		RouteSearchUsers,
		RouteChatList,
		RouteChatRoom,
	)
}

// Patterns returns the registered patterns
func (t *Table) Patterns() []string {
	out := make([]string, len(t.patterns))
	copy(out, t.patterns)
	return out
}

// Match resolves a concrete route against the table
func (t *Table) Match(route string) (Entry, error) {
	segments := strings.Split(route, "/")
	for _, pattern := range t.patterns {
		params, ok := matchPattern(strings.Split(pattern, "/"), segments)
		if ok {
			return Entry{Pattern: pattern, Route: route, Params: params}, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrUnknownRoute, route)
}

func matchPattern(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segments[i] == "" {
				return nil, false
			}
			value, err := url.PathUnescape(segments[i])
			if err != nil {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:len(p)-1]] = value
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// ChatRoom builds the chat room route for a partner display name
func ChatRoom(partnerName string) string {
	return "chat_room/" + url.PathEscape(partnerName)
}
