// Package peersmgr — обёртка над gotd peers.Manager с персистентным кэшем на bbolt.
// Сервис отвечает за:
//   - открытие/закрытие базы данных кэша пиров;
//   - доступ к менеджеру пиров (в памяти);
//   - запоминание соответствия username → канал между запусками, чтобы не
//     тратить на каждый запуск дорогой contacts.resolveUsername.
//
// История каналов здесь не хранится, только сущности пиров.
package peersmgr

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bboltdb "github.com/gotd/contrib/bbolt"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"

	"tg-channel-reader/internal/infra/storage"
)

const (
	peersBucketName      = "peers"
	resolvedAtBucketName = "resolved_at"
	dbOpenTimeout        = time.Second
	// DefaultTTL — срок, после которого закэшированный username резолвится заново.
	DefaultTTL = 24 * time.Hour
)

var (
	peersBucketBytes      = []byte(peersBucketName)
	resolvedAtBucketBytes = []byte(resolvedAtBucketName)
)

// Service инкапсулирует менеджер пиров и bbolt-хранилище.
// Без пути к базе сервис работает только в памяти: Lookup всегда промахивается.
type Service struct {
	db    *bbolt.DB
	store contribstorage.PeerStorage
	Mgr   *peers.Manager

	ttl time.Duration
	now func() time.Time
}

// New создаёт сервис пиров поверх bbolt и gotd peers.Manager.
// Пустой dbPath отключает персистентный кэш.
func New(api *tg.Client, dbPath string) (*Service, error) {
	if api == nil {
		return nil, errors.New("peersmgr: api client is nil")
	}
	service := &Service{
		Mgr: (peers.Options{}).Build(api),
		ttl: DefaultTTL,
		now: time.Now,
	}

	path := strings.TrimSpace(dbPath)
	if path == "" {
		return service, nil
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	service.db = db
	service.store = bboltdb.NewPeerStorage(db, peersBucketBytes)
	return service, nil
}

func openDB(path string) (*bbolt.DB, error) {
	if err := storage.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("peersmgr: %w", err)
	}

	db, err := bbolt.Open(path, storage.DefaultFilePerm, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("peersmgr: open db: %w", err)
	}
	return db, nil
}

// Close закрывает файл базы данных.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Persistent сообщает, подключён ли файл кэша.
func (s *Service) Persistent() bool {
	return s.db != nil
}

// LookupChannel возвращает канал, ранее сохранённый под username.
// ok=false при промахе, просроченной записи или отключённом кэше.
func (s *Service) LookupChannel(ctx context.Context, username string) (*tg.Channel, bool, error) {
	if s.store == nil {
		return nil, false, nil
	}
	key := cacheKey(username)
	if key == "" {
		return nil, false, nil
	}
	if !s.fresh(key) {
		return nil, false, nil
	}

	value, err := s.store.Resolve(ctx, key)
	if errors.Is(err, contribstorage.ErrPeerNotFound) {
		return nil, false, nil
	}
	if err != nil {
		if isJSONUnmarshalError(err) {
			_ = s.resetPeersBucket()
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("peersmgr: lookup %q: %w", key, err)
	}
	if value.Channel == nil || value.Channel.AccessHash == 0 {
		return nil, false, nil
	}

	if err := s.Mgr.Apply(ctx, nil, []tg.ChatClass{value.Channel}); err != nil {
		return nil, false, fmt.Errorf("peersmgr: apply cached channel: %w", err)
	}
	return value.Channel, true, nil
}

// RememberChannel сохраняет канал под username. Без файла кэша — no-op.
func (s *Service) RememberChannel(ctx context.Context, username string, channel *tg.Channel) error {
	if s.store == nil || channel == nil {
		return nil
	}
	key := cacheKey(username)
	if key == "" {
		return nil
	}

	// Кодек storage.Peer требует photo; сервер присылает его всегда.
	if channel.Photo == nil {
		c := *channel
		c.Photo = &tg.ChatPhotoEmpty{}
		channel = &c
	}

	var value contribstorage.Peer
	if !value.FromChat(channel) {
		return fmt.Errorf("peersmgr: channel %d cannot be stored", channel.ID)
	}
	if err := s.store.Assign(ctx, key, value); err != nil {
		return fmt.Errorf("peersmgr: assign %q: %w", key, err)
	}
	return s.touch(key)
}

// fresh проверяет, что запись по ключу моложе ttl.
func (s *Service) fresh(key string) bool {
	var stamp time.Time
	_ = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(resolvedAtBucketBytes)
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(key))
		if len(raw) != 8 {
			return nil
		}
		stamp = time.Unix(int64(binary.BigEndian.Uint64(raw)), 0)
		return nil
	})
	if stamp.IsZero() {
		return false
	}
	return s.now().Sub(stamp) < s.ttl
}

func (s *Service) touch(key string) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(s.now().Unix()))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, bucketErr := tx.CreateBucketIfNotExists(resolvedAtBucketBytes)
		if bucketErr != nil {
			return bucketErr
		}
		return bucket.Put([]byte(key), buf)
	})
	if err != nil {
		return fmt.Errorf("peersmgr: stamp %q: %w", key, err)
	}
	return nil
}

func cacheKey(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

func isJSONUnmarshalError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	return strings.Contains(err.Error(), "json:")
}

// resetPeersBucket сбрасывает повреждённый кэш вместе с отметками времени.
func (s *Service) resetPeersBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{peersBucketBytes, resolvedAtBucketBytes} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		_, err := tx.CreateBucketIfNotExists(peersBucketBytes)
		return err
	})
}
