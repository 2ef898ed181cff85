package config

import (
	"fmt"
	"os"
	"strings"
)

// readSecret читает секрет из файла в стандартном пути Docker Secrets.
// Путь можно переопределить переменной окружения <NAME>_FILE (для локальной
// разработки и тестов).
func readSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	if override := os.Getenv(strings.ToUpper(secretName) + "_FILE"); override != "" {
		filePath = override
	}
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		// Не добавляем fallback на env var, чтобы поведение было консистентным
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
