// Package memstore 内存版仓库，供服务层和 HTTP 层测试使用。
// 语义与 gorm 仓库保持一致：唯一约束、级联删除、分类置空、实时评分。
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// DB 内存数据库
type DB struct {
	mu     sync.Mutex
	nextID int

	users      map[int]*model.User
	categories map[int]*model.Category
	genres     map[int]*model.Genre
	titles     map[int]*model.Title
	reviews    map[int]*model.Review
	comments   map[int]*model.Comment
}

// New 创建空数据库
func New() *DB {
	return &DB{
		users:      map[int]*model.User{},
		categories: map[int]*model.Category{},
		genres:     map[int]*model.Genre{},
		titles:     map[int]*model.Title{},
		reviews:    map[int]*model.Review{},
		comments:   map[int]*model.Comment{},
	}
}

func (m *DB) id() int {
	m.nextID++
	return m.nextID
}

func pageOf[T any](items []*T, page repository.Page) ([]*T, int64, error) {
	total := int64(len(items))
	if page.Offset < 0 || page.Offset >= len(items) {
		return []*T{}, total, nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items, total, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ==================== users ====================

// Users 用户仓库
type Users struct{ *DB }

func (m Users) FindByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m Users) FindByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m Users) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.ID = m.id()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m Users) Update(_ context.Context, user *model.User, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "username":
			stored.Username = v.(string)
		case "email":
			stored.Email = v.(string)
		case "first_name":
			stored.FirstName = v.(string)
		case "last_name":
			stored.LastName = v.(string)
		case "bio":
			stored.Bio = v.(string)
		case "role":
			stored.Role = v.(model.Role)
		}
	}
	return nil
}

func (m Users) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for rid, r := range m.reviews {
		if r.AuthorID == id {
			m.dropReview(rid)
		}
	}
	for cid, c := range m.comments {
		if c.AuthorID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m Users) List(_ context.Context, search string, page repository.Page) ([]*model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if search == "" || containsFold(u.Username, search) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, page)
}

// ==================== categories / genres ====================

// Categories 分类仓库
type Categories struct{ *DB }

func (m Categories) Create(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicate
		}
	}
	c.ID = m.id()
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m Categories) FindBySlug(_ context.Context, slug string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m Categories) FindBySlugs(ctx context.Context, slugs []string) ([]*model.Category, error) {
	var out []*model.Category
	for _, s := range slugs {
		c, _ := m.FindBySlug(ctx, s)
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m Categories) DeleteBySlug(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.categories {
		if c.Slug == slug {
			delete(m.categories, id)
			for _, t := range m.titles {
				if t.CategoryID != nil && *t.CategoryID == id {
					t.CategoryID = nil
				}
			}
			return true, nil
		}
	}
	return false, nil
}

func (m Categories) List(_ context.Context, search string, page repository.Page) ([]*model.Category, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Category
	for _, c := range m.categories {
		if search == "" || containsFold(c.Name, search) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return pageOf(out, page)
}

// Genres 类型仓库
type Genres struct{ *DB }

func (m Genres) Create(_ context.Context, g *model.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.genres {
		if existing.Slug == g.Slug {
			return repository.ErrDuplicate
		}
	}
	g.ID = m.id()
	cp := *g
	m.genres[g.ID] = &cp
	return nil
}

func (m Genres) FindBySlug(_ context.Context, slug string) (*model.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.genres {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m Genres) FindBySlugs(ctx context.Context, slugs []string) ([]*model.Genre, error) {
	var out []*model.Genre
	for _, s := range slugs {
		g, _ := m.FindBySlug(ctx, s)
		if g != nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m Genres) DeleteBySlug(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, g := range m.genres {
		if g.Slug == slug {
			delete(m.genres, id)
			for _, t := range m.titles {
				kept := t.Genres[:0]
				for _, tg := range t.Genres {
					if tg.ID != id {
						kept = append(kept, tg)
					}
				}
				t.Genres = kept
			}
			return true, nil
		}
	}
	return false, nil
}

func (m Genres) List(_ context.Context, search string, page repository.Page) ([]*model.Genre, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Genre
	for _, g := range m.genres {
		if search == "" || containsFold(g.Name, search) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return pageOf(out, page)
}

// ==================== titles ====================

// Titles 作品仓库
type Titles struct{ *DB }

// view 组装读取结果：分类、类型和按评论实时计算的平均分
func (m Titles) view(t *model.Title) *model.Title {
	cp := *t
	cp.Genres = append([]model.Genre(nil), t.Genres...)
	cp.Category = nil
	if t.CategoryID != nil {
		if c, ok := m.categories[*t.CategoryID]; ok {
			cc := *c
			cp.Category = &cc
		}
	}
	var scores []int
	for _, r := range m.reviews {
		if r.TitleID == t.ID {
			scores = append(scores, r.Score)
		}
	}
	cp.Rating = mean(scores)
	return &cp
}

func (m Titles) FindByID(_ context.Context, id int) (*model.Title, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.titles[id]
	if !ok {
		return nil, nil
	}
	return m.view(t), nil
}

func (m Titles) Exists(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.titles[id]
	return ok, nil
}

func (m Titles) List(_ context.Context, f repository.TitleFilter, page repository.Page) ([]*model.Title, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Title
	for _, t := range m.titles {
		v := m.view(t)
		if f.Name != "" && !containsFold(v.Name, f.Name) {
			continue
		}
		if f.Year != nil && v.Year != *f.Year {
			continue
		}
		if f.Category != "" && (v.Category == nil || v.Category.Slug != f.Category) {
			continue
		}
		if f.Genre != "" {
			found := false
			for _, g := range v.Genres {
				if g.Slug == f.Genre {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return pageOf(out, page)
}

// checkRefs 模拟外键：引用的分类、类型必须存在，调用方持有锁
func (m Titles) checkRefs(categoryID *int, genres []model.Genre) error {
	if categoryID != nil {
		if _, ok := m.categories[*categoryID]; !ok {
			return repository.ErrReferenceMissing
		}
	}
	for _, g := range genres {
		if _, ok := m.genres[g.ID]; !ok {
			return repository.ErrReferenceMissing
		}
	}
	return nil
}

func (m Titles) Create(_ context.Context, t *model.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkRefs(t.CategoryID, t.Genres); err != nil {
		return err
	}
	t.ID = m.id()
	cp := *t
	cp.Genres = append([]model.Genre(nil), t.Genres...)
	m.titles[t.ID] = &cp
	return nil
}

func (m Titles) Update(_ context.Context, t *model.Title, fields map[string]interface{}, genres []*model.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.titles[t.ID]
	if !ok {
		return nil
	}
	if v, ok := fields["category_id"]; ok && v != nil {
		id := v.(int)
		if err := m.checkRefs(&id, nil); err != nil {
			return err
		}
	}
	if genres != nil {
		refs := make([]model.Genre, 0, len(genres))
		for _, g := range genres {
			refs = append(refs, *g)
		}
		if err := m.checkRefs(nil, refs); err != nil {
			return err
		}
	}
	for k, v := range fields {
		switch k {
		case "name":
			stored.Name = v.(string)
		case "year":
			stored.Year = v.(int)
		case "description":
			stored.Description = v.(string)
		case "category_id":
			if v == nil {
				stored.CategoryID = nil
			} else {
				id := v.(int)
				stored.CategoryID = &id
			}
		}
	}
	if genres != nil {
		stored.Genres = stored.Genres[:0]
		for _, g := range genres {
			stored.Genres = append(stored.Genres, *g)
		}
	}
	return nil
}

func (m Titles) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.titles, id)
	for rid, r := range m.reviews {
		if r.TitleID == id {
			m.dropReview(rid)
		}
	}
	return nil
}

// dropReview 删除评论及其回复，调用方持有锁
func (m *DB) dropReview(id int) {
	delete(m.reviews, id)
	for cid, c := range m.comments {
		if c.ReviewID == id {
			delete(m.comments, cid)
		}
	}
}

// ==================== reviews / comments ====================

// Reviews 评论仓库
type Reviews struct{ *DB }

func (m Reviews) withAuthor(r *model.Review) *model.Review {
	cp := *r
	if u, ok := m.users[r.AuthorID]; ok {
		uc := *u
		cp.Author = &uc
	}
	return &cp
}

func (m Reviews) FindInTitle(_ context.Context, titleID, reviewID int) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok || r.TitleID != titleID {
		return nil, nil
	}
	return m.withAuthor(r), nil
}

func (m Reviews) ExistsByAuthor(_ context.Context, titleID, authorID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.TitleID == titleID && r.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (m Reviews) ListByTitle(_ context.Context, titleID int, page repository.Page) ([]*model.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Review
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			out = append(out, m.withAuthor(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, page)
}

func (m Reviews) Create(_ context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.TitleID == r.TitleID && existing.AuthorID == r.AuthorID {
			return repository.ErrDuplicate
		}
	}
	r.ID = m.id()
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m Reviews) Update(_ context.Context, r *model.Review, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reviews[r.ID]
	if !ok {
		return nil
	}
	if v, ok := fields["text"]; ok {
		stored.Text = v.(string)
	}
	if v, ok := fields["score"]; ok {
		stored.Score = v.(int)
	}
	return nil
}

func (m Reviews) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropReview(id)
	return nil
}

// Comments 回复仓库
type Comments struct{ *DB }

func (m Comments) FindInReview(_ context.Context, reviewID, commentID int) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m Comments) ListByReview(_ context.Context, reviewID int, page repository.Page) ([]*model.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, page)
}

func (m Comments) Create(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m Comments) Update(_ context.Context, c *model.Comment, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.comments[c.ID]; ok {
		if v, ok := fields["text"]; ok {
			stored.Text = v.(string)
		}
	}
	return nil
}

func (m Comments) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.comments, id)
	return nil
}

func mean(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	v := float64(sum) / float64(len(scores))
	return &v
}

// ReviewCount 评论总数
func (m *DB) ReviewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews)
}

// CommentCount 回复总数
func (m *DB) CommentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

// Users 用户仓库
func (m *DB) Users() Users { return Users{m} }

// Categories 分类仓库
func (m *DB) Categories() Categories { return Categories{m} }

// Genres 类型仓库
func (m *DB) Genres() Genres { return Genres{m} }

// Titles 作品仓库
func (m *DB) Titles() Titles { return Titles{m} }

// Reviews 评论仓库
func (m *DB) Reviews() Reviews { return Reviews{m} }

// Comments 回复仓库
func (m *DB) Comments() Comments { return Comments{m} }
