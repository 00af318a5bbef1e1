package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
)

// MemoryStore keeps users, projects, files and reports in maps guarded by one
// RWMutex so project deletion can cascade atomically. Use the Users, Projects,
// Files and Reports views to get the repository interfaces.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	users    map[string]*model.User
	projects map[string]*model.Project
	files    map[string]*model.UploadedFile
	reports  map[string]*model.Report
	order    map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*model.User),
		projects: make(map[string]*model.Project),
		files:    make(map[string]*model.UploadedFile),
		reports:  make(map[string]*model.Report),
		order:    make(map[string]int64),
	}
}

func (m *MemoryStore) Users() repository.UserRepository       { return memoryUsers{m} }
func (m *MemoryStore) Projects() repository.ProjectRepository { return memoryProjects{m} }
func (m *MemoryStore) Files() repository.FileRepository       { return memoryFiles{m} }
func (m *MemoryStore) Reports() repository.ReportRepository   { return memoryReports{m} }

// track records insertion order; callers hold the write lock.
func (m *MemoryStore) track(id string) {
	m.seq++
	m.order[id] = m.seq
}

// newestFirst sorts by creation time, then by insertion order.
func newestFirst[T any](m *MemoryStore, items []T, id func(T) string, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return m.order[id(items[i])] > m.order[id(items[j])]
	})
}

type memoryUsers struct{ *MemoryStore }

func (m memoryUsers) Upsert(ctx context.Context, u *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.GitHubID == u.GitHubID {
			existing.Login = u.Login
			existing.Email = u.Email
			existing.Name = u.Name
			existing.AvatarURL = u.AvatarURL
			*u = *existing
			return nil
		}
	}
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = time.Now().UTC()
	stored := *u
	m.users[u.ID] = &stored
	m.track(u.ID)
	return nil
}

func (m memoryUsers) Get(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memoryUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	newestFirst(m.MemoryStore, users, func(u model.User) string { return u.ID }, func(u model.User) time.Time { return u.CreatedAt })
	return users, nil
}

func (m memoryUsers) UpdateRole(_ context.Context, id string, role model.Role) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

type memoryProjects struct{ *MemoryStore }

func (m memoryProjects) Create(ctx context.Context, p *model.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	m.projects[p.ID] = &stored
	m.track(p.ID)
	return nil
}

func (m memoryProjects) Get(_ context.Context, id string) (*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memoryProjects) ListByOwner(_ context.Context, ownerID string) ([]model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	projects := []model.Project{}
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			projects = append(projects, *p)
		}
	}
	newestFirst(m.MemoryStore, projects, func(p model.Project) string { return p.ID }, func(p model.Project) time.Time { return p.CreatedAt })
	return projects, nil
}

func (m memoryProjects) Update(_ context.Context, id string, u model.ProjectUpdate) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

// Delete cascades to the project's files and reports.
func (m memoryProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return repository.ErrProjectNotFound
	}
	delete(m.projects, id)
	for fid, f := range m.files {
		if f.ProjectID == id {
			delete(m.files, fid)
		}
	}
	for rid, r := range m.reports {
		if r.ProjectID == id {
			delete(m.reports, rid)
		}
	}
	return nil
}

type memoryFiles struct{ *MemoryStore }

func (m memoryFiles) Create(ctx context.Context, f *model.UploadedFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[f.ProjectID]; !ok {
		return repository.ErrProjectNotFound
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = time.Now().UTC()
	stored := *f
	m.files[f.ID] = &stored
	m.track(f.ID)
	return nil
}

func (m memoryFiles) Get(_ context.Context, id string) (*model.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, repository.ErrFileNotFound
	}
	cp := *f
	return &cp, nil
}

func (m memoryFiles) ListByProject(_ context.Context, projectID string) ([]model.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := []model.UploadedFile{}
	for _, f := range m.files {
		if f.ProjectID == projectID {
			files = append(files, *f)
		}
	}
	newestFirst(m.MemoryStore, files, func(f model.UploadedFile) string { return f.ID }, func(f model.UploadedFile) time.Time { return f.CreatedAt })
	return files, nil
}

func (m memoryFiles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return repository.ErrFileNotFound
	}
	delete(m.files, id)
	return nil
}

type memoryReports struct{ *MemoryStore }

func (m memoryReports) Create(ctx context.Context, r *model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[r.ProjectID]; !ok {
		return repository.ErrProjectNotFound
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = model.ReportCompleted
	}
	r.CreatedAt = time.Now().UTC()
	stored := cloneReport(*r)
	m.reports[r.ID] = &stored
	m.track(r.ID)
	return nil
}

func (m memoryReports) Get(_ context.Context, id string) (*model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	cp := cloneReport(*r)
	return &cp, nil
}

func (m memoryReports) ListByProject(_ context.Context, projectID string) ([]model.Report, error) {
	return m.filter(func(r *model.Report) bool { return r.ProjectID == projectID }), nil
}

func (m memoryReports) ListByGenerator(_ context.Context, userID string) ([]model.Report, error) {
	return m.filter(func(r *model.Report) bool { return r.GeneratedBy == userID }), nil
}

func (m memoryReports) filter(keep func(*model.Report) bool) []model.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reports := []model.Report{}
	for _, r := range m.reports {
		if keep(r) {
			reports = append(reports, cloneReport(*r))
		}
	}
	newestFirst(m.MemoryStore, reports, func(r model.Report) string { return r.ID }, func(r model.Report) time.Time { return r.CreatedAt })
	return reports
}

func cloneReport(r model.Report) model.Report {
	r.Insight.Metrics = cloneSlice(r.Insight.Metrics)
	r.Insight.Trends = cloneSlice(r.Insight.Trends)
	r.Insight.Actions = cloneSlice(r.Insight.Actions)
	return r
}

// cloneSlice keeps nil and empty distinct so JSON output is unchanged.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
