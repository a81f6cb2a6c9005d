package service

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository/memstore"
)

type testEnv struct {
	db       *memstore.DB
	catalog  *CatalogService
	content  *ContentService
	accounts *AccountService
}

func newTestEnv() *testEnv {
	db := memstore.New()
	return &testEnv{
		db:       db,
		catalog:  NewCatalogService(db.Titles(), db.Categories(), db.Genres()),
		content:  NewContentService(db.Titles(), db.Reviews(), db.Comments()),
		accounts: NewAccountService(db.Users()),
	}
}

// user 直接写入一个账户并返回其身份
func (e *testEnv) user(username string, role model.Role) *model.Principal {
	u := &model.User{Username: username, Email: username + "@example.com", Role: role}
	if err := e.db.Users().Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u.Principal()
}

func (e *testEnv) title(name string, year int) *model.Title {
	t := &model.Title{Name: name, Year: year}
	if err := e.db.Titles().Create(context.Background(), t); err != nil {
		panic(err)
	}
	return t
}
