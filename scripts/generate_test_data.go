// Генератор тестовых наборов для пакетного поиска NIP.
// Создает JSON-файлы с зашумленными названиями фирм в формате
// запроса /api/v1/nip/find-batch.
//
// Запуск: go run scripts/generate_test_data.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// BatchEntry одна запись пакетного запроса
type BatchEntry struct {
	CompanyName string `json:"company_name"`
	City        string `json:"city,omitempty"`
	Email       string `json:"email,omitempty"`
}

// BatchDataset набор тестовых данных
type BatchDataset struct {
	Count     int          `json:"count"`
	Companies []BatchEntry `json:"companies"`
}

var legalForms = []string{"Sp. z o.o.", "S.A.", "Sp.j.", "Sp.k.", "P.H.U.", "F.H.U."}

var cities = []string{
	"Warszawa", "Kraków", "Wrocław", "Poznań", "Gdańsk",
	"Łódź", "Katowice", "Szczecin", "Lublin", "Bydgoszcz",
}

func main() {
	gofakeit.Seed(0)

	sizes := []struct {
		name string
		size int
	}{
		{"10", 10},
		{"100", 100},
		{"1K", 1000},
	}

	dataDir := filepath.Join("tests", "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	for _, size := range sizes {
		fmt.Printf("Generating %s records...\n", size.name)

		companies := make([]BatchEntry, size.size)
		for i := 0; i < size.size; i++ {
			companies[i] = generateEntry()
		}

		dataset := BatchDataset{Count: size.size, Companies: companies}
		outPath := filepath.Join(dataDir, fmt.Sprintf("batch_%s.json", size.name))
		data, err := json.MarshalIndent(dataset, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal dataset: %v", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", outPath, err)
		}
		fmt.Printf("  → %s\n", outPath)
	}
}

// generateEntry создает запись с шумом, характерным для выгрузок CRM:
// правовые формы, кавычки, лишние пробелы, иногда город и email.
func generateEntry() BatchEntry {
	name := gofakeit.Company()

	// Иногда правовая форма
	if gofakeit.Bool() {
		name = fmt.Sprintf("%s %s", name, gofakeit.RandomString(legalForms))
	}

	// Иногда кавычки вокруг ядра названия
	if gofakeit.Number(0, 9) < 3 {
		name = fmt.Sprintf("\"%s\"", name)
	}

	// Иногда лишние пробелы
	if gofakeit.Number(0, 9) < 2 {
		name = "  " + name + " "
	}

	entry := BatchEntry{CompanyName: name}

	if gofakeit.Bool() {
		entry.City = gofakeit.RandomString(cities)
	}

	if gofakeit.Number(0, 9) < 4 {
		domain := strings.ToLower(strings.Fields(gofakeit.Company())[0]) + ".pl"
		entry.Email = fmt.Sprintf("kontakt@%s", domain)
	}

	return entry
}
