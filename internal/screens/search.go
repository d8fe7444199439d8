package screens

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

// FieldQuery is the search field id
const FieldQuery = "query"

type searchView struct {
	Query     string               `json:"query"`
	Results   []models.UserProfile `json:"results"`
	Following map[string]bool      `json:"-"`
}

// SearchUsers finds users by username prefix and follows them
type SearchUsers struct {
	deps   Deps
	chrome *chrome
	state  *binder.Binder[searchView]
}

// NewSearchUsers creates the add friend screen
func NewSearchUsers(d Deps) *SearchUsers {
	return &SearchUsers{
		deps:   d,
		chrome: newChrome(navigation.RouteSearchUsers, "Add Friend", d),
		state:  binder.New[searchView]("search_users", d.Loop, d.Logger),
	}
}

func (s *SearchUsers) Route() string { return navigation.RouteSearchUsers }

// Mount loads the header profile and the following list in parallel
func (s *SearchUsers) Mount(context.Context) {
	identity, ok := s.deps.Host.Identity()
	if !ok {
		_ = s.state.Mutate(func(st *binder.State[searchView]) { st.Message = "User not logged in." })
		s.chrome.mount()
		return
	}
	binder.Run(s.state, "following", func(ctx context.Context) ([]string, error) {
		var following []string
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			profile, _ := s.chrome.fetchProfile(gctx)
			s.chrome.setProfile(profile)
			return nil
		})
		g.Go(func() error {
			ids, err := s.deps.Graph.FollowingIDs(gctx, identity.UID)
			if err != nil {
				return err
			}
			following = ids
			return nil
		})
		err := g.Wait()
		return following, err
	}, func(st *binder.State[searchView], ids []string, err error) {
		if err != nil {
			st.Message = "Failed to load following list: " + gateway.Message(err)
			return
		}
		following := make(map[string]bool, len(ids)+len(st.Data.Following))
		for id := range st.Data.Following {
			following[id] = true
		}
		for _, id := range ids {
			following[id] = true
		}
		st.Data.Following = following
	})
}

func (s *SearchUsers) Observe(fn func()) func() {
	return binder.ObserveAll(fn, s.chrome.header, s.state)
}

func (s *SearchUsers) Unmount() {
	s.state.Unmount()
	s.chrome.unmount()
}

func (s *SearchUsers) View() components.Node {
	st := s.state.Snapshot()
	body := []components.Node{components.Field(FieldQuery, "username", st.Data.Query, false)}
	body = append(body, status("search_status", st)...)
	for _, u := range st.Data.Results {
		body = append(body, components.UserSearchCard(u, st.Data.Following[u.ID]))
	}
	return s.chrome.page(body...)
}

func (s *SearchUsers) Handle(ctx context.Context, intent components.Intent) error {
	switch intent.Action {
	case components.ActionInput:
		if intent.Target != FieldQuery {
			return ErrUnhandledIntent
		}
		return s.search(intent.Value)
	case components.ActionAddFriend:
		return s.addFriend(intent.Target, intent.Value)
	}
	return ErrUnhandledIntent
}

// search replaces any in-flight search with one for query
func (s *SearchUsers) search(query string) error {
	blank := strings.TrimSpace(query) == ""
	err := s.state.Mutate(func(st *binder.State[searchView]) {
		st.Data.Query = query
		st.Data.Results = nil
		st.Err = ""
		st.Message = ""
		if !blank {
			st.Message = fmt.Sprintf("Searching for '%s'...", query)
		}
	})
	if err != nil {
		return err
	}

	var excludeID string
	if identity, ok := s.deps.Host.Identity(); ok {
		excludeID = identity.UID
	}
	binder.Run(s.state, "search", func(ctx context.Context) ([]models.UserProfile, error) {
		return s.deps.Graph.Search(ctx, query, excludeID)
	}, func(st *binder.State[searchView], users []models.UserProfile, err error) {
		if err != nil {
			st.Message = ""
			st.Err = "Error searching users: " + gateway.Message(err)
			return
		}
		st.Data.Results = users
		st.Message = ""
		if !blank && len(users) == 0 {
			st.Message = fmt.Sprintf("No users found for '%s'.", query)
		}
	})
	return nil
}

// addFriend follows targetID. The local following set changes only after
// both documents were written.
func (s *SearchUsers) addFriend(targetID, targetUsername string) error {
	identity, ok := s.deps.Host.Identity()
	if !ok {
		return s.state.Mutate(func(st *binder.State[searchView]) { st.Message = "Please log in to add friends." })
	}
	var already bool
	err := s.state.Mutate(func(st *binder.State[searchView]) {
		if st.Data.Following[targetID] {
			already = true
			st.Err = ""
			st.Message = fmt.Sprintf("You are already following %s.", targetUsername)
		}
	})
	if err != nil || already {
		return err
	}

	binder.Run(s.state, "follow:"+targetID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.deps.Graph.Follow(ctx, identity.UID, targetID)
	}, func(st *binder.State[searchView], _ struct{}, err error) {
		if err != nil {
			s.deps.Logger.Warn("add friend failed", zap.String("target", targetID), zap.Error(err))
			st.Message = ""
			st.Err = fmt.Sprintf("Failed to add %s: %s", targetUsername, gateway.Message(err))
			return
		}
		following := make(map[string]bool, len(st.Data.Following)+1)
		for id := range st.Data.Following {
			following[id] = true
		}
		following[targetID] = true
		st.Data.Following = following
		st.Err = ""
		st.Message = fmt.Sprintf("You are now following %s!", targetUsername)
	})
	return nil
}
