package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"
	"go.uber.org/zap"

	"tg-channel-reader/internal/adapters/telegram/mtproto"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/logger"
	"tg-channel-reader/internal/infra/telegram/connection"
	"tg-channel-reader/internal/infra/telegram/peersmgr"
)

// runner владеет клиентом и кэшем пиров на время одной команды.
// Сервисы поднимаются по порядку: клиент, кэш пиров, привязка транспорта;
// закрываются в обратном порядке на любом пути выхода.
type runner struct {
	client  *telegram.Client
	peers   *peersmgr.Service
	backend mtproto.Backend
}

func (a *App) newRunner() (*runner, error) {
	backend, err := mtproto.ParseBackend(a.cfg.Backend)
	if err != nil {
		return nil, err
	}

	client := connection.NewClient(a.clientOptions())
	logger.Debug("service started", zap.String("service", "mtproto_client"))

	peers, err := peersmgr.New(client.API(), a.cfg.PeersCacheFile)
	if err != nil {
		// Кэш пиров необязателен: без него username резолвится каждый запуск.
		logger.Warn("peers cache unavailable, continuing without it",
			zap.String("path", a.cfg.PeersCacheFile),
			zap.Error(err),
		)
		if peers, err = peersmgr.New(client.API(), ""); err != nil {
			return nil, errors.Wrap(err, "init peers manager")
		}
	}
	logger.Debug("service started",
		zap.String("service", "peers_cache"),
		zap.Bool("persistent", peers.Persistent()),
	)

	return &runner{client: client, peers: peers, backend: backend}, nil
}

// run открывает соединение и выполняет fn с готовым Fetcher.
func (r *runner) run(ctx context.Context, fn func(ctx context.Context, f *reader.Fetcher) error) error {
	defer r.close()

	return connection.Run(ctx, r.client, nil, func(ctx context.Context) error {
		rc, err := mtproto.New(r.backend, r.client.API(), r.peers)
		if err != nil {
			return err
		}
		logger.Debug("service started", zap.String("service", "reader"), zap.String("backend", string(r.backend)))
		return fn(ctx, reader.NewFetcher(rc))
	})
}

func (r *runner) close() {
	if err := r.peers.Close(); err != nil {
		logger.Warn("close peers cache", zap.Error(err))
	}
	logger.Debug("service stopped", zap.String("service", "peers_cache"))
}
