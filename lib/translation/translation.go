package translation

import (
	"github.com/leonelquinteros/gotext"
)

// Configure loads the default domain of lang from dir.
func Configure(dir, lang string) {
	gotext.Configure(dir, lang, "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
