// Package repositorytest provides an in-process implementation of the repositories, used by
// tests that exercise services and routes without a database.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"blog-be/internal/entities"
	"blog-be/internal/repository"
)

// Store holds users and posts behind one lock.
type Store struct {
	mu     sync.Mutex
	seq    int
	clock  time.Time
	users  map[string]*entities.User
	posts  map[string]*entities.Post
	writes int
}

func NewStore() *Store {
	return &Store{
		clock: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		users: make(map[string]*entities.User),
		posts: make(map[string]*entities.Post),
	}
}

// Writes counts successful post mutations.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Users returns the UserRepository view of the store.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// Posts returns the PostRepository view of the store.
func (s *Store) Posts() repository.PostRepository { return (*postRepo)(s) }

// tick advances the fake clock so creation order is strict. Callers hold mu.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func copyUser(u *entities.User) *entities.User {
	cp := *u
	return &cp
}

func (s *Store) copyPost(p *entities.Post) *entities.Post {
	cp := *p
	if p.ImageURL != nil {
		img := *p.ImageURL
		cp.ImageURL = &img
	}
	if u, ok := s.users[p.CreatorID]; ok {
		cp.Creator = copyUser(u)
	}
	return &cp
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, email, passwordHash string, name *string) (*entities.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, repository.ErrDuplicateEmail
		}
	}
	now := s.tick()
	u := &entities.User{
		ID:           s.nextID("user"),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Status:       entities.DefaultStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return copyUser(u), nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id string) (*entities.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) UpdateStatus(_ context.Context, id, status string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = s.tick()
	return nil
}

type postRepo Store

func (r *postRepo) Create(_ context.Context, post *entities.Post) (*entities.Post, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.CreatorID]; !ok {
		return nil, fmt.Errorf("failed to create post: unknown creator %q", post.CreatorID)
	}
	now := s.tick()
	p := *post
	p.ID = s.nextID("post")
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Creator = nil
	s.posts[p.ID] = &p
	s.writes++
	return s.copyPost(&p), nil
}

func (r *postRepo) FindByID(_ context.Context, id string) (*entities.Post, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.copyPost(p), nil
}

func (r *postRepo) List(_ context.Context, offset, limit int) ([]*entities.Post, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*entities.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*entities.Post{}, nil
	}
	end := min(offset+limit, len(all))
	page := make([]*entities.Post, 0, end-offset)
	for _, p := range all[offset:end] {
		page = append(page, s.copyPost(p))
	}
	return page, nil
}

func (r *postRepo) Count(_ context.Context) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.posts)), nil
}

func (r *postRepo) Update(_ context.Context, post *entities.Post) (*entities.Post, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[post.ID]
	if !ok || p.CreatorID != post.CreatorID {
		return nil, repository.ErrNotFound
	}
	p.Title = post.Title
	p.Content = post.Content
	p.ImageURL = post.ImageURL
	p.UpdatedAt = s.tick()
	s.writes++
	return s.copyPost(p), nil
}

func (r *postRepo) Delete(_ context.Context, id, creatorID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || p.CreatorID != creatorID {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	s.writes++
	return nil
}
