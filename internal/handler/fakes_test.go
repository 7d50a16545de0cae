package handler

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/movie-catalog-api/internal/queue"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// In-memory store fakes implementing the handler store interfaces. They
// reproduce the repository error contract (sentinel errors, duplicate-name
// detection) so handler tests exercise the same branches the SQL-backed
// repos trigger.

// fakePublisher records catalog events instead of talking to a broker. A
// non-nil err is returned from every publish so tests can check that
// publish failures never surface to the client.
type fakePublisher struct {
	events []queue.CatalogChangedEvent
	err    error
}

func (p *fakePublisher) PublishCatalogChanged(_ context.Context, ev queue.CatalogChangedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type fakeMovieStore struct {
	nextID uint64
	items  map[uint64]*repository.Movie
}

func newFakeMovieStore() *fakeMovieStore {
	return &fakeMovieStore{nextID: 1, items: map[uint64]*repository.Movie{}}
}

func (s *fakeMovieStore) sorted() []*repository.Movie {
	out := make([]*repository.Movie, 0, len(s.items))
	for _, m := range s.items {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *fakeMovieStore) List(context.Context) ([]*repository.Movie, error) {
	return s.sorted(), nil
}

func (s *fakeMovieStore) GetByID(_ context.Context, id uint64) (*repository.Movie, error) {
	m, ok := s.items[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMovieStore) ExistsByID(_ context.Context, id uint64) (bool, error) {
	_, ok := s.items[id]
	return ok, nil
}

func (s *fakeMovieStore) Create(_ context.Context, m *repository.Movie) error {
	for _, cur := range s.items {
		if cur.Name == m.Name {
			return repository.ErrDuplicateName
		}
	}
	m.ID = s.nextID
	s.nextID++
	cp := *m
	s.items[m.ID] = &cp
	return nil
}

func (s *fakeMovieStore) Update(_ context.Context, m *repository.Movie) error {
	if _, ok := s.items[m.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	for _, cur := range s.items {
		if cur.ID != m.ID && cur.Name == m.Name {
			return repository.ErrDuplicateName
		}
	}
	cp := *m
	s.items[m.ID] = &cp
	return nil
}

func (s *fakeMovieStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *fakeMovieStore) Search(_ context.Context, namePart string) ([]*repository.Movie, error) {
	needle := strings.ToLower(namePart)
	var out []*repository.Movie
	for _, m := range s.sorted() {
		if strings.Contains(strings.ToLower(m.Name), needle) ||
			strings.Contains(strings.ToLower(m.Description), needle) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMovieStore) ListByCategory(_ context.Context, categoryID uint64) ([]*repository.Movie, error) {
	var out []*repository.Movie
	for _, m := range s.sorted() {
		if m.CategoryID == categoryID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCategoryStore struct {
	nextID uint64
	items  map[uint64]*repository.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{nextID: 1, items: map[uint64]*repository.Category{}}
}

func (s *fakeCategoryStore) List(context.Context) ([]*repository.Category, error) {
	out := make([]*repository.Category, 0, len(s.items))
	for _, c := range s.items {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeCategoryStore) GetByID(_ context.Context, id uint64) (*repository.Category, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeCategoryStore) ExistsByID(_ context.Context, id uint64) (bool, error) {
	_, ok := s.items[id]
	return ok, nil
}

func (s *fakeCategoryStore) Create(_ context.Context, c *repository.Category) error {
	for _, cur := range s.items {
		if cur.Name == c.Name {
			return repository.ErrDuplicateName
		}
	}
	c.ID = s.nextID
	s.nextID++
	cp := *c
	s.items[c.ID] = &cp
	return nil
}

func (s *fakeCategoryStore) Update(_ context.Context, c *repository.Category) error {
	if _, ok := s.items[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	for _, cur := range s.items {
		if cur.ID != c.ID && cur.Name == c.Name {
			return repository.ErrDuplicateName
		}
	}
	cp := *c
	s.items[c.ID] = &cp
	return nil
}

func (s *fakeCategoryStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(s.items, id)
	return nil
}

type fakeUserStore struct {
	nextID     uint64
	users      map[uint64]*repository.User
	roles      map[uint64][]string
	bootstraps bool // roles table already bootstrapped
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		nextID: 1,
		users:  map[uint64]*repository.User{},
		roles:  map[uint64][]string{},
	}
}

func (s *fakeUserStore) IsUniqueUsername(_ context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range s.users {
		if u.Username == username {
			return false, nil
		}
	}
	return true, nil
}

func (s *fakeUserStore) Register(_ context.Context, username, password, displayName string, cost int) (*repository.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range s.users {
		if u.Username == username {
			return nil, "", repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, "", err
	}
	role := repository.RoleRegistered
	if !s.bootstraps {
		s.bootstraps = true
		role = repository.RoleAdmin
	}
	u := &repository.User{
		ID:           s.nextID,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	s.nextID++
	s.users[u.ID] = u
	s.roles[u.ID] = []string{role}
	cp := *u
	return &cp, role, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*repository.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (*repository.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) List(context.Context) ([]*repository.User, error) {
	out := make([]*repository.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *fakeUserStore) RolesOf(_ context.Context, userID uint64) ([]string, error) {
	return s.roles[userID], nil
}
