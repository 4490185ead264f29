package session

import (
	"context"
	"net"
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/gotd/td/crypto"
	tdsession "github.com/gotd/td/session"
	"github.com/gotd/td/telegram/dcs"
	"go.uber.org/zap"

	"tg-channel-reader/internal/infra/logger"
)

// BackupSuffix добавляется к исходному файлу, если импорт пишет поверх него.
const BackupSuffix = ".bak"

// ImportResult описывает выполненный импорт.
type ImportResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Format Format `json:"format"`
	DC     int    `json:"dc"`
	Backup string `json:"backup,omitempty"`
}

// Import переносит авторизацию из sqlite-сессии Pyrogram или Telethon в файл
// сессии gotd по пути dst. Если src и dst совпадают, исходник сохраняется
// рядом с суффиксом .bak.
func Import(ctx context.Context, src, dst string) (ImportResult, error) {
	format, err := DetectFormat(ctx, src)
	if err != nil {
		return ImportResult{}, err
	}
	if !format.Importable() {
		return ImportResult{}, errors.Errorf("session %s has format %q, only pyrogram and telethon sessions can be imported", src, format)
	}

	foreign, err := readForeignSession(ctx, src, format)
	if err != nil {
		return ImportResult{}, err
	}
	data, err := toData(foreign)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Source: src, Target: dst, Format: format, DC: data.DC}
	if resolve(src) == resolve(dst) {
		result.Backup = src + BackupSuffix
		if err := os.Rename(src, result.Backup); err != nil {
			return ImportResult{}, errors.Wrap(err, "backup source session")
		}
	}

	loader := tdsession.Loader{Storage: &FileStorage{Path: dst}}
	if err := loader.Save(ctx, data); err != nil {
		return ImportResult{}, errors.Wrap(err, "save session")
	}
	logger.Info("session imported",
		zap.String("source", src),
		zap.String("target", dst),
		zap.String("format", string(format)),
		zap.Int("dc", data.DC),
	)
	return result, nil
}

func toData(s foreignSession) (*tdsession.Data, error) {
	var key crypto.Key
	if len(s.AuthKey) != len(key) {
		return nil, errors.Errorf("auth key has %d bytes, want %d", len(s.AuthKey), len(key))
	}
	copy(key[:], s.AuthKey)
	withID := key.WithID()

	addr := s.Addr
	if addr == "" {
		list := dcs.Prod()
		if s.TestMode {
			list = dcs.Test()
		}
		var err error
		if addr, err = dcAddr(list, s.DC); err != nil {
			return nil, err
		}
	}

	return &tdsession.Data{
		DC:        s.DC,
		Addr:      addr,
		AuthKey:   withID.Value[:],
		AuthKeyID: withID.ID[:],
	}, nil
}

// dcAddr выбирает IPv4-адрес основного (не медиа и не CDN) сервера DC.
func dcAddr(list dcs.List, dc int) (string, error) {
	for _, opt := range list.Options {
		if opt.ID != dc || opt.Ipv6 || opt.MediaOnly || opt.CDN || opt.TCPObfuscatedOnly {
			continue
		}
		return joinHostPort(opt.IPAddress, opt.Port), nil
	}
	return "", errors.Errorf("unknown DC %d", dc)
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
