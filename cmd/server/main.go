package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nipfinder/internal/app"
	"nipfinder/internal/config"
	"nipfinder/server"
)

func main() {
	log.Println("Запуск NIP Finder HTTP Server...")

	// Загружаем конфигурацию
	log.Println("[1/3] Загрузка конфигурации...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("✗ Ошибка загрузки конфигурации: %v", err)
	}
	log.Printf("✓ Конфигурация загружена. Порт: %s", cfg.Port)

	// Собираем каскад поиска
	log.Println("[2/3] Инициализация компонентов...")
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("✗ Ошибка инициализации: %v", err)
	}
	defer application.Close()
	log.Printf("✓ Компоненты инициализированы, кэш: %s", cfg.CachePath)

	// Запускаем сервер в горутине
	log.Println("[3/3] Запуск HTTP сервера...")
	srv := server.NewServer(cfg, application.Finder, application.Cache)

	startErrorChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("✗ КРИТИЧЕСКАЯ ОШИБКА: Не удалось запустить HTTP сервер")
			log.Printf("  Порт: %s", cfg.Port)
			log.Printf("  Ошибка: %v", err)
			startErrorChan <- err
		}
	}()

	select {
	case err := <-startErrorChan:
		log.Printf("✗ Сервер не запустился: %v", err)
		os.Exit(1)
	case <-time.After(2 * time.Second):
	}

	log.Printf("✓ Сервер запущен на порту %s", cfg.Port)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Println("Для остановки нажмите Ctrl+C")

	// Ожидаем сигнал завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Получен сигнал завершения, останавливаем сервер...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
