package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator renders message keys for one language.
type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(langCode, data)
}

func newTranslatorFromBytes(langCode string, data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{lang: langCode, translations: translations}, nil
}

// T formats the message for key, or returns key itself when it is unknown.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Lang() string { return t.lang }
