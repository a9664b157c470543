package service

import (
	"context"

	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
	"github.com/sakif/forum/internal/store"
)

func (s *Service) GetEntitiesCount(ctx context.Context) (store.Counts, error) {
	var counts store.Counts
	err := s.read(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetEntitiesCount, o.now), "count entities"); err != nil {
			return err
		}
		counts = o.c.Counts()
		o.emit(observer.Event{Kind: observer.EntitiesCounted})
		return nil
	})
	return counts, err
}

// GetVersion reports the build version the binary was stamped with.
func (s *Service) GetVersion(ctx context.Context) (string, error) {
	var version string
	err := s.read(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetVersion, o.now), "read the version"); err != nil {
			return err
		}
		version = s.version
		return nil
	})
	return version, err
}
