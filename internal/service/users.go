package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/authz"
	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
)

// AddUser registers a new account that logs in with authKey.
//
// Names listed under authorization.administrators in the config receive
// every privilege forum-wide at the maximum level when they register.
func (s *Service) AddUser(ctx context.Context, name, authKey string) (Result, error) {
	if err := checkUserName("name", name, s.cfg.User.Name); err != nil {
		return Result{}, err
	}
	if authKey == "" {
		return Result{}, apperror.ValidationFailed("authKey", "auth key is required")
	}
	// bcrypt is slow on purpose, so hash before taking the lock.
	hash, err := s.keys.Hash(authKey)
	if err != nil {
		return Result{}, apperror.ValidationFailed("authKey", err.Error())
	}

	var res Result
	err = s.write(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAddUser, o.now), "add users"); err != nil {
			return err
		}
		u := &model.User{
			ID:       model.NewID(),
			Name:     name,
			Created:  o.now,
			LastSeen: o.now,
			AuthHash: hash,
		}
		if err := o.c.InsertUser(u); err != nil {
			if errors.Is(err, collection.ErrExists) {
				return apperror.Conflict("user", name)
			}
			return err
		}
		if s.isAdministrator(name) {
			grantEverything(o.c.Authz.Grants, u.ID, o.now)
		}
		res = Result{ID: u.ID, Name: u.Name, Created: u.Created}
		o.emit(observer.Event{Kind: observer.UserAdded, Entity: u.ID, New: u.Name})
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("user added", slog.String("id", res.ID.String()), slog.String("name", res.Name))
	return res, nil
}

func (s *Service) isAdministrator(name string) bool {
	for _, admin := range s.cfg.Authorization.Administrators {
		if collate.Equal(admin, name) {
			return true
		}
	}
	return false
}

func grantEverything(grants *authz.GrantStore, user model.ID, now time.Time) {
	add := func(k privilege.Key) {
		grants.Add(authz.Grant{User: user, Privilege: k, Value: privilege.MaxValue, GrantedAt: now})
	}
	for _, p := range privilege.AllMessage() {
		add(privilege.KeyOf(p))
	}
	for _, p := range privilege.AllThread() {
		add(privilege.KeyOf(p))
	}
	for _, p := range privilege.AllTag() {
		add(privilege.KeyOf(p))
	}
	for _, p := range privilege.AllCategory() {
		add(privilege.KeyOf(p))
	}
	for _, p := range privilege.AllForumWide() {
		add(privilege.KeyOf(p))
	}
}

// GetUsers lists users one page at a time.
func (s *Service) GetUsers(ctx context.Context, by UserOrder) (Page[UserView], error) {
	var page Page[UserView]
	err := s.read(ctx, func(o *op) error {
		ix, err := by.scanner(o.c)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAllUsers, o.now), "list users"); err != nil {
			return err
		}
		page = pageIndex(ix, o.display, s.cfg.User.MaxUsersPerPage, nil, s.userView)
		return nil
	})
	return page, err
}

// GetUserByID is always allowed for one's own account.
func (s *Service) GetUserByID(ctx context.Context, id model.ID) (UserView, error) {
	var view UserView
	err := s.read(ctx, func(o *op) error {
		u, err := o.findUser(id)
		if err != nil {
			return err
		}
		if u.ID != o.userID() {
			if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetUserInfo, o.now), "view users"); err != nil {
				return err
			}
		}
		view = s.userView(u)
		return nil
	})
	return view, err
}

func (s *Service) GetUserByName(ctx context.Context, name string) (UserView, error) {
	if name == "" {
		return UserView{}, apperror.ValidationFailed("name", "name is required")
	}
	var view UserView
	err := s.read(ctx, func(o *op) error {
		u, ok := o.c.UserByName(name)
		if !ok {
			return apperror.NotFound("user", name)
		}
		if u.ID != o.userID() {
			if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetUserInfo, o.now), "view users"); err != nil {
				return err
			}
		}
		view = s.userView(u)
		return nil
	})
	return view, err
}

// GetCurrentUser returns the acting user, or the anonymous placeholder.
func (s *Service) GetCurrentUser(ctx context.Context) (UserView, error) {
	var view UserView
	err := s.read(ctx, func(o *op) error {
		view = s.userView(o.user)
		return nil
	})
	return view, err
}

// userField is one of the free-text profile fields.
type userField struct {
	name  string
	kind  observer.Kind
	get   func(*model.User) *string
	check func(s *Service, v string) error
}

var (
	infoField = userField{
		name:  "info",
		kind:  observer.UserInfoChanged,
		get:   func(u *model.User) *string { return &u.Info },
		check: func(s *Service, v string) error { return checkText("info", v, s.cfg.User.Info) },
	}
	titleField = userField{
		name:  "title",
		kind:  observer.UserTitleChanged,
		get:   func(u *model.User) *string { return &u.Title },
		check: func(s *Service, v string) error { return checkText("title", v, s.cfg.User.Title) },
	}
	signatureField = userField{
		name:  "signature",
		kind:  observer.UserSignatureChanged,
		get:   func(u *model.User) *string { return &u.Signature },
		check: func(s *Service, v string) error { return checkText("signature", v, s.cfg.User.Signature) },
	}
)

// authorizeUserChange picks the "own" or the "any" privilege depending on
// whose account is changed.
func (o *op) authorizeUserChange(target *model.User, own, any privilege.ForumWide, action string) error {
	p := any
	if target.ID == o.userID() {
		p = own
	}
	return allowed(o.c.Authz.ForumWide(o.userID(), p, o.now), action)
}

func (s *Service) ChangeUserName(ctx context.Context, id model.ID, name string) error {
	if err := checkUserName("name", name, s.cfg.User.Name); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		u, err := o.findUser(id)
		if err != nil {
			return err
		}
		if err := o.authorizeUserChange(u, privilege.ForumWideChangeOwnUserName, privilege.ForumWideChangeAnyUserName, "rename users"); err != nil {
			return err
		}
		if u.Name == name {
			return apperror.NoEffect("user already has that name")
		}
		old := u.Name
		if err := o.c.RenameUser(u, name); err != nil {
			if errors.Is(err, collection.ErrExists) {
				return apperror.Conflict("user", name)
			}
			return err
		}
		o.emit(observer.Event{Kind: observer.UserNameChanged, Entity: u.ID, Old: old, New: name})
		return nil
	})
}

func (s *Service) ChangeUserInfo(ctx context.Context, id model.ID, info string) error {
	return s.changeUserField(ctx, id, info, infoField)
}

func (s *Service) ChangeUserTitle(ctx context.Context, id model.ID, title string) error {
	return s.changeUserField(ctx, id, title, titleField)
}

func (s *Service) ChangeUserSignature(ctx context.Context, id model.ID, signature string) error {
	return s.changeUserField(ctx, id, signature, signatureField)
}

func (s *Service) changeUserField(ctx context.Context, id model.ID, value string, f userField) error {
	if err := f.check(s, value); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		u, err := o.findUser(id)
		if err != nil {
			return err
		}
		if err := o.authorizeUserChange(u, privilege.ForumWideChangeOwnUserInfo, privilege.ForumWideChangeAnyUserInfo, "change the "+f.name+" of users"); err != nil {
			return err
		}
		field := f.get(u)
		if *field == value {
			return apperror.NoEffect("user " + f.name + " unchanged")
		}
		old := *field
		*field = value
		o.emit(observer.Event{Kind: f.kind, Entity: u.ID, Old: old, New: value})
		return nil
	})
}

// ChangeUserAttachmentQuota overrides the configured default quota of a user.
func (s *Service) ChangeUserAttachmentQuota(ctx context.Context, id model.ID, quota uint64) error {
	return s.write(ctx, func(o *op) error {
		u, err := o.findUser(id)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideChangeAnyUserAttachmentQuota, o.now), "change attachment quotas"); err != nil {
			return err
		}
		if u.AttachmentQuota != nil && *u.AttachmentQuota == quota {
			return apperror.NoEffect("attachment quota unchanged")
		}
		u.AttachmentQuota = &quota
		o.emit(observer.Event{Kind: observer.UserAttachmentQuotaChanged, Entity: u.ID, New: strconv.FormatUint(quota, 10)})
		return nil
	})
}

// DeleteUser removes the account together with everything it created.
func (s *Service) DeleteUser(ctx context.Context, id model.ID) error {
	err := s.write(ctx, func(o *op) error {
		u, err := o.findUser(id)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideDeleteAnyUser, o.now), "delete users"); err != nil {
			return err
		}
		name := u.Name
		o.c.DeleteUser(u)
		o.emit(observer.Event{Kind: observer.UserDeleted, Entity: id, Old: name})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("id", id.String()))
	return nil
}

// Login checks authKey against the user called name and issues a session
// token.
func (s *Service) Login(ctx context.Context, name, authKey string) (string, error) {
	if name == "" || authKey == "" {
		return "", apperror.ValidationFailed("authKey", "name and auth key are required")
	}
	if s.tokens == nil {
		return "", apperror.Forbidden("login is disabled")
	}

	var (
		id   model.ID
		hash []byte
	)
	err := s.read(ctx, func(o *op) error {
		u, ok := o.c.UserByName(name)
		if !ok {
			return apperror.Forbidden("invalid credentials")
		}
		if err := allowed(o.c.Authz.ForumWide(u.ID, privilege.ForumWideLogin, o.now), "log in"); err != nil {
			return err
		}
		id, hash = u.ID, u.AuthHash
		o.emit(observer.Event{Kind: observer.UserLoggedIn, Entity: u.ID})
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.keys.Verify(hash, authKey); err != nil {
		s.logger.Warn("login failed", slog.String("user", id.String()))
		return "", apperror.Forbidden("invalid credentials")
	}
	token, err := s.tokens.Generate(id)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}
