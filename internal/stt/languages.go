package stt

import "sort"

type languageCodes struct {
	iso1  string // ISO 639-1, used by Whisper-style APIs
	bcp47 string // used by Google Speech-to-Text
}

// knownLanguages maps engine language codes ({iso639-3}_{script}) to the
// codes third-party APIs expect.
var knownLanguages = map[string]languageCodes{
	"afr_Latn": {"af", "af-ZA"},
	"amh_Ethi": {"am", "am-ET"},
	"arb_Arab": {"ar", "ar-SA"},
	"ben_Beng": {"bn", "bn-IN"},
	"bul_Cyrl": {"bg", "bg-BG"},
	"cat_Latn": {"ca", "ca-ES"},
	"ces_Latn": {"cs", "cs-CZ"},
	"cmn_Hans": {"zh", "cmn-Hans-CN"},
	"cmn_Hant": {"zh", "cmn-Hant-TW"},
	"dan_Latn": {"da", "da-DK"},
	"deu_Latn": {"de", "de-DE"},
	"ell_Grek": {"el", "el-GR"},
	"eng_Latn": {"en", "en-US"},
	"fin_Latn": {"fi", "fi-FI"},
	"fra_Latn": {"fr", "fr-FR"},
	"guj_Gujr": {"gu", "gu-IN"},
	"hau_Latn": {"ha", ""},
	"heb_Hebr": {"he", "iw-IL"},
	"hin_Deva": {"hi", "hi-IN"},
	"hun_Latn": {"hu", "hu-HU"},
	"ind_Latn": {"id", "id-ID"},
	"ita_Latn": {"it", "it-IT"},
	"jpn_Jpan": {"ja", "ja-JP"},
	"kan_Knda": {"kn", "kn-IN"},
	"kor_Hang": {"ko", "ko-KR"},
	"mal_Mlym": {"ml", "ml-IN"},
	"mar_Deva": {"mr", "mr-IN"},
	"nld_Latn": {"nl", "nl-NL"},
	"pol_Latn": {"pl", "pl-PL"},
	"por_Latn": {"pt", "pt-BR"},
	"ron_Latn": {"ro", "ro-RO"},
	"rus_Cyrl": {"ru", "ru-RU"},
	"spa_Latn": {"es", "es-ES"},
	"swe_Latn": {"sv", "sv-SE"},
	"swh_Latn": {"sw", "sw-KE"},
	"tam_Taml": {"ta", "ta-IN"},
	"tel_Telu": {"te", "te-IN"},
	"tha_Thai": {"th", "th-TH"},
	"tur_Latn": {"tr", "tr-TR"},
	"ukr_Cyrl": {"uk", "uk-UA"},
	"urd_Arab": {"ur", "ur-PK"},
	"vie_Latn": {"vi", "vi-VN"},
	"yor_Latn": {"yo", ""},
	"zul_Latn": {"zu", "zu-ZA"},
}

// KnownLanguages returns every code in the table, sorted.
func KnownLanguages() []string {
	return languagesWhere(func(languageCodes) bool { return true })
}

func languagesWhere(keep func(languageCodes) bool) []string {
	out := make([]string, 0, len(knownLanguages))
	for code, lc := range knownLanguages {
		if keep(lc) {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// ISO1 returns the two-letter code for an engine language code. Unknown or
// empty codes return "" which lets the API auto-detect.
func ISO1(code string) string {
	return knownLanguages[code].iso1
}

// BCP47 returns the locale Google expects, defaulting to en-US.
func BCP47(code string) string {
	if lc, ok := knownLanguages[code]; ok && lc.bcp47 != "" {
		return lc.bcp47
	}
	return "en-US"
}
