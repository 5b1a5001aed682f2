package main

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/config"
	"github.com/username/vacation-calendar/internal/identity"
	"github.com/username/vacation-calendar/internal/infra"
	"github.com/username/vacation-calendar/internal/store"
	"github.com/username/vacation-calendar/internal/store/firestore"
	"github.com/username/vacation-calendar/internal/store/memory"
	"github.com/username/vacation-calendar/internal/store/sqlite"
	"go.uber.org/zap"
)

// newDayTypeSource chains isdayoff.ru, xmlcalendar.ru and the optional local file
func newDayTypeSource(cc config.CalendarConfig) calendar.Source {
	sources := []calendar.NamedSource{
		{Name: "isdayoff", Source: calendar.NewIsDayOffSource(cc.IsDayOffURL, cc.Country, cc.GetTimeout(), logger)},
	}
	if cc.FallbackURL != "" {
		sources = append(sources, calendar.NamedSource{
			Name:   "xmlcalendar",
			Source: calendar.NewXMLCalendarSource(cc.FallbackURL, cc.GetTimeout(), logger),
		})
	}
	if cc.FallbackFile != "" {
		sources = append(sources, calendar.NamedSource{
			Name:   "file",
			Source: calendar.NewFileSource(cc.FallbackFile, logger),
		})
	}

	logger.Info("Day type sources configured", zap.Int("count", len(sources)))
	return calendar.NewCompositeSource(logger, sources...)
}

// firebaseApp is created lazily; the store and the provider share it
type firebaseApp struct {
	cfg config.FirebaseConfig
	app *firebase.App
}

func (f *firebaseApp) get(ctx context.Context) (*firebase.App, error) {
	if f.app != nil {
		return f.app, nil
	}
	app, err := infra.NewFirebaseApp(ctx, f.cfg.ProjectID, f.cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	f.app = app
	return app, nil
}

func newDocumentStore(ctx context.Context, sc config.StoreConfig, fb *firebaseApp) (store.DocumentStore, error) {
	switch sc.Type {
	case config.StoreSQLite:
		logger.Info("Using SQLite document store", zap.String("path", sc.Path))
		s, err := sqlite.New(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil

	case config.StoreFirestore:
		logger.Info("Using Firestore document store", zap.String("project", fb.cfg.ProjectID))
		app, err := fb.get(ctx)
		if err != nil {
			return nil, err
		}
		s, err := firestore.New(ctx, app)
		if err != nil {
			return nil, fmt.Errorf("failed to open firestore: %w", err)
		}
		return s, nil

	default:
		logger.Warn("Using in-memory document store, data is lost on restart")
		return memory.New(), nil
	}
}

func newIdentityProvider(ctx context.Context, ac config.AuthConfig, docs store.DocumentStore, fb *firebaseApp) (identity.Provider, error) {
	if ac.Provider != config.AuthFirebase {
		logger.Info("Using local identity provider", zap.Duration("token_ttl", ac.GetTokenTTL()))
		return identity.NewLocalProvider(docs, ac.JWTSecret, ac.GetTokenTTL()), nil
	}

	logger.Info("Using Firebase identity provider", zap.String("project", fb.cfg.ProjectID))
	app, err := fb.get(ctx)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}
	return identity.NewFirebaseProvider(fb.cfg.APIKey, fb.cfg.IdentityToolkitURL, client, fb.cfg.GetTimeout(), logger), nil
}
