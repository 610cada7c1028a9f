package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"schedule-viewer/config"
	"schedule-viewer/logger"
)

var rootCmd = &cobra.Command{
	Use:   "schedule-viewer",
	Short: "Weekly schedule viewer API",
	RunE:  runServe,
}

func main() {
	// Загружаем .env файл (игнорируем ошибку для продакшн)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		logger.New("main").Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}
