package repositories

import "pdfshrink/internal/domain/entities"

// AppConfigRepository загрузка и сохранение config.yaml
type AppConfigRepository interface {
	Load(configPath string) (*entities.Config, error)
	Save(configPath string, config *entities.Config) error
}
