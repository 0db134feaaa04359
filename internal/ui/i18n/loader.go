// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"fmt"
	"log/slog"
)

// LoadFromEmbedFS загружает locales/<lang>.json для каждого поддерживаемого языка.
func LoadFromEmbedFS(catalog *Catalog, logger *slog.Logger) error {
	for _, lang := range codes {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}

		keys, err := catalog.Add(lang, data)
		if err != nil {
			return err
		}
		logger.Info("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", keys),
		)
	}
	return nil
}
