// findnip разовый поиск NIP из командной строки.
//
//	findnip -name "Awodent" -city "Warszawa" -email kontakt@awodent.pl
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"nipfinder/internal/app"
	"nipfinder/internal/config"
	"nipfinder/models"
)

func main() {
	name := flag.String("name", "", "название фирмы (обязательно)")
	city := flag.String("city", "", "город")
	email := flag.String("email", "", "email фирмы, используется только домен")
	skipCache := flag.Bool("skip-cache", false, "игнорировать кэш результатов")
	asJSON := flag.Bool("json", false, "вывести результат в JSON")
	timeout := flag.Duration("timeout", 2*time.Minute, "таймаут поиска")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "требуется -name")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("✗ Ошибка загрузки конфигурации: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("✗ Ошибка инициализации: %v", err)
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result := application.Finder.FindNIP(ctx, models.NIPRequest{
		CompanyName: *name,
		City:        *city,
		Email:       *email,
		SkipCache:   *skipCache,
	})

	if *asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("✗ Ошибка сериализации результата: %v", err)
		}
		fmt.Println(string(out))
		if !result.Found {
			os.Exit(1)
		}
		return
	}

	printResult(result)
	if !result.Found {
		os.Exit(1)
	}
}

func printResult(r *models.NIPResult) {
	if r.Found {
		fmt.Printf("NIP:        %s\n", r.NIPFormatted)
		fmt.Printf("Confidence: %.2f\n", r.Confidence)
		fmt.Printf("Strategy:   %s\n", r.StrategyUsed)
	} else {
		fmt.Printf("NIP не найден для %q\n", r.CompanyName)
	}
	if r.FromCache {
		fmt.Printf("Из кэша, возраст %d дн.\n", r.CacheAgeDays)
	}
	for _, w := range r.Warnings {
		fmt.Printf("⚠ %s\n", w)
	}
	if len(r.Alternatives) > 0 {
		fmt.Println("Отклоненные кандидаты:")
		for _, alt := range r.Alternatives {
			fmt.Printf("  %s (%.2f, %s)\n", alt.NIP, alt.Confidence, alt.Strategy)
		}
	}
	fmt.Printf("Время: %d мс, стоимость: $%.4f\n", r.ProcessingTimeMS, r.CostUSD)
}
