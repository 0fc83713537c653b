package cmd

import (
	"github.com/podtube-cli/podtube/catalog"
	"github.com/podtube-cli/podtube/engine"
	"github.com/podtube-cli/podtube/history"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/player"
	"github.com/podtube-cli/podtube/resolver"
	"github.com/podtube-cli/podtube/sleeptimer"
	"github.com/podtube-cli/podtube/store"
	"github.com/spf13/viper"
)

// session is one running player: the store and every component bound to it.
type session struct {
	store    *store.Store
	catalog  *catalog.Client
	resolver *resolver.Resolver
	engine   *engine.Engine
	sleep    *sleeptimer.Scheduler
	recorder *history.Recorder

	// errors carries failures that should be shown to the user.
	errors chan error
}

func newSession() *session {
	s := &session{
		store: store.New(
			store.WithVolume(viper.GetFloat64(key.PlayerInitialVolume)/100),
			store.WithExpanded(viper.GetBool(key.TUIStartExpanded)),
		),
		catalog: catalog.NewFromConfig(),
		errors:  make(chan error, 8),
	}
	s.resolver = resolver.NewFromConfig(s.catalog)
	s.engine = engine.New(
		s.store,
		s.resolver,
		player.NewAudio(),
		player.NewVideo(),
		engine.WithNotifier(s.notify),
	)
	s.sleep = sleeptimer.New(s.store)
	if viper.GetBool(key.HistorySaveOnPlay) {
		s.recorder = history.Record(s.store)
	}
	return s
}

// notify never blocks the engine; when nobody is reading, older failures are dropped.
func (s *session) notify(err error) {
	select {
	case s.errors <- err:
	default:
		log.Warnf("dropped notification: %s", err)
	}
}

func (s *session) Close() {
	s.sleep.Close()
	if s.recorder != nil {
		s.recorder.Close()
	}
	if err := s.engine.Close(); err != nil {
		log.Warnf("close engine: %s", err)
	}
}
