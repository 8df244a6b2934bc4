package order

import "strings"

var stateCodes = map[string]string{
	"acre":                "AC",
	"alagoas":             "AL",
	"amapa":               "AP",
	"amazonas":            "AM",
	"bahia":               "BA",
	"ceara":               "CE",
	"distrito federal":    "DF",
	"espirito santo":      "ES",
	"goias":               "GO",
	"maranhao":            "MA",
	"mato grosso":         "MT",
	"mato grosso do sul":  "MS",
	"minas gerais":        "MG",
	"para":                "PA",
	"paraiba":             "PB",
	"parana":              "PR",
	"pernambuco":          "PE",
	"piaui":               "PI",
	"rio de janeiro":      "RJ",
	"rio grande do norte": "RN",
	"rio grande do sul":   "RS",
	"rondonia":            "RO",
	"roraima":             "RR",
	"santa catarina":      "SC",
	"sao paulo":           "SP",
	"sergipe":             "SE",
	"tocantins":           "TO",
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u",
	"ç", "c",
)

// NormalizeState maps a Brazilian state name or code to its two-letter code.
// Unknown values fall back to def.
func NormalizeState(raw, def string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def
	}
	if code, ok := stateCodes[accentFolder.Replace(strings.ToLower(s))]; ok {
		return code
	}
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return def
}

// PhoneDigits strips everything but ASCII digits from a phone number
func PhoneDigits(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
