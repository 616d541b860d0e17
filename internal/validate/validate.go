package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	// Moroccan numbers: 0X XX XX XX XX or +212 X XX XX XX XX, spaces/dashes/dots allowed
	rePhone = regexp.MustCompile(`^(\+212|00212|0)[5-7][0-9]{8}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCode  = regexp.MustCompile(`^[A-Za-z0-9_-]{0,32}$`)
)

// Cities are the delivery cities offered at checkout.
var Cities = []string{
	"Casablanca", "Rabat", "Marrakech", "Fes", "Tangier",
	"Agadir", "Meknes", "Oujda", "Kenitra", "Tetouan",
	"Safi", "Mohammedia", "Beni Mellal", "Khouribga", "El Jadida",
	"Nador", "Taza", "Settat", "Berrechid", "Khemisset",
	"Laayoune", "Dakhla", "Errachidia",
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Phone strips separators and accepts Moroccan mobile and landline formats.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	compact := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(s)
	if compact == "" || len(compact) > 16 {
		return "", false
	}
	if !rePhone.MatchString(compact) {
		return "", false
	}
	return compact, true
}

// City returns the canonical spelling of a delivery city.
func City(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Cities {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

// Qty parses a quantity, clamping to [1, 50].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// ID validates a resource identifier (product ids, order codes).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Code validates an optional product reference code.
func Code(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCode.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Text trims free text (address, notes, messages) and enforces a max length.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= max
}

// Password enforces a length window for admin passwords.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 72
}
