package core

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgInvalidRequest  = "invalid request: %s"
	msgCanceled        = "request canceled"
	msgTimeout         = "request timed out after %s"
	msgNetwork         = "network error: %s"
	msgInvalidAPIKey   = "invalid API key, check the credentials configured for this provider"
	msgDecode          = "could not decode provider response: %s"
	msgJobFailed       = "job %s failed with status %s"
	msgJobNotFound     = "no result found for job %s before the deadline"
	msgEmptyResult     = "the provider returned no images"
	msgEmptyResultText = "the provider returned no images: %s"
)

var supportedLocales = []language.Tag{language.English, language.Spanish}

var localeMatcher = language.NewMatcher(supportedLocales)

func init() {
	es := map[string]string{
		msgInvalidRequest:  "solicitud inválida: %s",
		msgCanceled:        "solicitud cancelada",
		msgTimeout:         "la solicitud superó el tiempo límite de %s",
		msgNetwork:         "error de red: %s",
		msgInvalidAPIKey:   "clave de API inválida, revisa las credenciales configuradas para este proveedor",
		msgDecode:          "no se pudo interpretar la respuesta del proveedor: %s",
		msgJobFailed:       "el trabajo %s falló con estado %s",
		msgJobNotFound:     "no se encontró resultado para el trabajo %s antes del límite de tiempo",
		msgEmptyResult:     "el proveedor no devolvió imágenes",
		msgEmptyResultText: "el proveedor no devolvió imágenes: %s",
	}
	for key, tr := range es {
		_ = message.SetString(language.English, key, key)
		_ = message.SetString(language.Spanish, key, tr)
	}
}

// MatchLocale maps a BCP-47 string onto a supported message language.
// Unknown or empty input yields English.
func MatchLocale(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supportedLocales[idx]
}

// Sprintf formats a catalog message in the given locale.
func Sprintf(locale, key string, args ...any) string {
	return message.NewPrinter(MatchLocale(locale)).Sprintf(key, args...)
}
