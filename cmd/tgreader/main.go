package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tg-channel-reader/internal/adapters/cli"
	"tg-channel-reader/internal/infra/logger"
	"tg-channel-reader/internal/infra/pr"
)

func main() {
	// До загрузки конфигурации уровень берётся прямо из окружения; команды
	// переустанавливают его после чтения .env и файла конфигурации.
	logger.Init(os.Getenv("LOG_LEVEL"))

	// Контекст с обработкой сигналов: Ctrl+C прерывает ожидание и закрывает соединение.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], os.Stdout)

	stop()
	pr.Close()
	logger.Close()
	os.Exit(code)
}
